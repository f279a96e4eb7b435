package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lead urgency tiers and lifecycle statuses.
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"

	LeadStatusPublished = "published"
	LeadStatusMatched   = "matched"
	LeadStatusClosed    = "closed"
)

// Lead is a customer service request. BasePrice and FinalPrice are written
// exactly once, at first matching, and never change afterwards.
type Lead struct {
	ID             uuid.UUID        `json:"id"`
	CustomerID     uuid.UUID        `json:"customer_id"`
	Trade          string           `json:"trade"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	PostalCode     string           `json:"postal_code"`
	City           string           `json:"city"`
	Urgency        string           `json:"urgency"`
	BudgetMin      *decimal.Decimal `json:"budget_min,omitempty"`
	BudgetMax      *decimal.Decimal `json:"budget_max,omitempty"`
	EstimatedValue *decimal.Decimal `json:"estimated_value,omitempty"`
	MediaCount     int              `json:"media_count"`
	BasePrice      *decimal.Decimal `json:"base_price,omitempty"`
	FinalPrice     *decimal.Decimal `json:"final_price,omitempty"`
	Status         string           `json:"status"`
	ContactName    string           `json:"contact_name,omitempty"`
	ContactPhone   string           `json:"contact_phone,omitempty"`
	ContactEmail   string           `json:"contact_email,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
