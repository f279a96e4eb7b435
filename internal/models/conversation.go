package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the message thread between a customer and a contractor,
// bootstrapped on the contractor's first successful purchase of the lead.
type Conversation struct {
	ID           uuid.UUID `json:"id"`
	LeadID       uuid.UUID `json:"lead_id"`
	ContractorID uuid.UUID `json:"contractor_id"`
	CustomerID   uuid.UUID `json:"customer_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Message sender roles.
const (
	SenderContractor = "contractor"
	SenderCustomer   = "customer"
)

type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	SenderRole     string    `json:"sender_role"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}
