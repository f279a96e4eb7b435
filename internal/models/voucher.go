package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Voucher discount types.
const (
	DiscountFixed      = "fixed"
	DiscountPercentage = "percentage"
)

// Voucher is a promotional code redeemed during purchase. UsedCount is a
// shared counter incremented atomically; it never exceeds MaxUses.
type Voucher struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	ValidFrom     time.Time       `json:"valid_from"`
	ValidUntil    time.Time       `json:"valid_until"`
	MaxUses       int             `json:"max_uses"`
	UsedCount     int             `json:"used_count"`
	Active        bool            `json:"active"`
}

// Apply returns the price after the voucher's discount, floored at zero.
func (v *Voucher) Apply(price decimal.Decimal) decimal.Decimal {
	var discounted decimal.Decimal
	switch v.DiscountType {
	case DiscountFixed:
		discounted = price.Sub(v.DiscountValue)
	case DiscountPercentage:
		factor := decimal.NewFromInt(100).Sub(v.DiscountValue).Div(decimal.NewFromInt(100))
		discounted = price.Mul(factor)
	default:
		return price
	}
	if discounted.IsNegative() {
		return decimal.Zero
	}
	return discounted
}
