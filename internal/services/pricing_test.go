package services

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/meisterleads/backend/internal/models"
)

func plumbingConfig() *models.TradePricing {
	return &models.TradePricing{
		Trade:           "plumbing",
		BasePrice:       decimal.NewFromInt(20),
		UrgentSurcharge: decimal.NewFromInt(10),
	}
}

func TestPriceLead_BaseOnly(t *testing.T) {
	price := PriceLead(plumbingConfig(), models.UrgencyMedium, 0, 50)
	if !price.Equal(decimal.NewFromInt(20)) {
		t.Errorf("expected base price 20, got %s", price)
	}
}

func TestPriceLead_UrgentSurcharge(t *testing.T) {
	price := PriceLead(plumbingConfig(), models.UrgencyHigh, 0, 50)
	if !price.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected 20 + 10 urgent surcharge = 30, got %s", price)
	}
}

func TestPriceLead_QualityBonusRequiresBothConditions(t *testing.T) {
	longDescription := len(strings.Repeat("a", 201))

	cases := []struct {
		name       string
		mediaCount int
		descLen    int
		want       int64
	}{
		{"media and long description", 2, longDescription, 25},
		{"media only", 2, 100, 20},
		{"long description only", 0, longDescription, 20},
		{"description exactly at threshold", 1, 200, 20},
		{"neither", 0, 50, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			price := PriceLead(plumbingConfig(), models.UrgencyLow, tc.mediaCount, tc.descLen)
			if !price.Equal(decimal.NewFromInt(tc.want)) {
				t.Errorf("expected %d, got %s", tc.want, price)
			}
		})
	}
}

func TestPriceLead_UrgentAndQuality(t *testing.T) {
	price := PriceLead(plumbingConfig(), models.UrgencyHigh, 3, 500)
	if !price.Equal(decimal.NewFromInt(35)) {
		t.Errorf("expected 20 + 10 + 5 = 35, got %s", price)
	}
}
