package models

import (
	"time"

	"github.com/google/uuid"
)

// Match origin and lifecycle statuses. A match moves pending -> active
// (purchased) or pending -> expired; no other transitions exist.
const (
	MatchOriginAutomatic = "automatic"
	MatchOriginManual    = "manual"
	MatchOriginFallback  = "fallback"

	MatchStatusPending = "pending"
	MatchStatusActive  = "active"
	MatchStatusExpired = "expired"
)

// MaxPurchasesPerLead is the global sold-out cap: at most this many
// contractors may buy the same lead.
const MaxPurchasesPerLead = 3

// Match joins a lead to an offered contractor, unique per pair. It acts as
// the authorization gate for purchasing: no match, no purchase.
type Match struct {
	ID           uuid.UUID  `json:"id"`
	LeadID       uuid.UUID  `json:"lead_id"`
	ContractorID uuid.UUID  `json:"contractor_id"`
	Score        int        `json:"score"`
	Origin       string     `json:"origin"`
	Status       string     `json:"status"`
	Purchased    bool       `json:"purchased"`
	PurchasedAt  *time.Time `json:"purchased_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
