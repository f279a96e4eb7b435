package models

import "github.com/shopspring/decimal"

// TradePricing is the per-trade pricing configuration: the lead base price,
// the surcharge for high-urgency leads, and the minimum project value used as
// a budget fallback during scoring.
type TradePricing struct {
	Trade           string          `json:"trade"`
	BasePrice       decimal.Decimal `json:"base_price"`
	UrgentSurcharge decimal.Decimal `json:"urgent_surcharge"`
	MinProjectValue decimal.Decimal `json:"min_project_value"`
}
