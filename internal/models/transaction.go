package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction types appearing in the wallet ledger.
const (
	TxTypeLeadPurchase = "lead_purchase"
	TxTypeWalletTopup  = "wallet_topup"
)

// Transaction is an append-only wallet ledger entry. Amount is signed
// (negative for debits); BalanceAfter is the contractor's balance immediately
// after the entry was applied.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	ContractorID uuid.UUID       `json:"contractor_id"`
	LeadID       *uuid.UUID      `json:"lead_id,omitempty"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Description  string          `json:"description"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
