package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification channels hint at how the external sink should deliver.
const (
	ChannelPush  = "push"
	ChannelEmail = "email"
)

// Notification is a persisted message to a contractor about an offered lead.
// Delivery to the external sink is asynchronous and best-effort.
type Notification struct {
	ID           uuid.UUID       `json:"id"`
	ContractorID uuid.UUID       `json:"contractor_id"`
	LeadID       uuid.UUID       `json:"lead_id"`
	Title        string          `json:"title"`
	Body         string          `json:"body"`
	Data         json.RawMessage `json:"data,omitempty"`
	Channel      string          `json:"channel"`
	ExpiresAt    time.Time       `json:"expires_at"`
	ReadAt       *time.Time      `json:"read_at,omitempty"`
	DeliveredAt  *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
