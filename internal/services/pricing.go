package services

import (
	"github.com/shopspring/decimal"

	"github.com/meisterleads/backend/internal/models"
)

// A lead earns the quality bonus when it has media attached and its
// description exceeds this length.
const richDescriptionLen = 200

var qualityBonus = decimal.NewFromInt(5)

// PriceLead computes the sale price of a lead: trade base price, plus the
// urgent surcharge for high-urgency leads, plus a small bonus for rich
// content. No rounding is applied beyond the additions themselves.
func PriceLead(cfg *models.TradePricing, urgency string, mediaCount, descriptionLen int) decimal.Decimal {
	price := cfg.BasePrice
	if urgency == models.UrgencyHigh {
		price = price.Add(cfg.UrgentSurcharge)
	}
	if mediaCount > 0 && descriptionLen > richDescriptionLen {
		price = price.Add(qualityBonus)
	}
	return price
}
