package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Contractor approval statuses. Only approved contractors are matched.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Contractor is a service provider with a prepaid wallet. WalletBalance is
// debited only by the purchase flow; credits come from the external funding
// collaborator.
type Contractor struct {
	ID              uuid.UUID       `json:"id"`
	Email           string          `json:"email"`
	PasswordHash    string          `json:"-"`
	CompanyName     string          `json:"company_name"`
	Trades          []string        `json:"trades"`
	PostalCode      string          `json:"postal_code"`
	City            string          `json:"city"`
	ServiceRadiusKm float64         `json:"service_radius_km"`
	MinProjectValue decimal.Decimal `json:"min_project_value"`
	WalletBalance   decimal.Decimal `json:"wallet_balance"`
	QualityScore    float64         `json:"quality_score"`
	AcceptsUrgent   bool            `json:"accepts_urgent"`
	ApprovalStatus  string          `json:"approval_status"`
	PurchaseCount   int             `json:"purchase_count"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
