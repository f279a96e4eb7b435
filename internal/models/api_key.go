package models

import (
	"github.com/google/uuid"
)

type APIKey struct {
	ID           uuid.UUID `json:"id"`
	ContractorID uuid.UUID `json:"contractor_id"`
	KeyHash      string    `json:"-"`
	KeyPrefix    string    `json:"key_prefix"`
	IsActive     bool      `json:"is_active"`
}
