package repository

import (
	"context"

	"github.com/meisterleads/backend/internal/models"
)

type PricingRepo struct {
	db DB
}

func NewPricingRepo(db DB) *PricingRepo {
	return &PricingRepo{db: db}
}

func (r *PricingRepo) GetByTrade(ctx context.Context, trade string) (*models.TradePricing, error) {
	var p models.TradePricing
	err := r.db.QueryRow(ctx, `
		SELECT trade, base_price, urgent_surcharge, min_project_value
		FROM trade_pricing WHERE trade = $1
	`, trade).Scan(&p.Trade, &p.BasePrice, &p.UrgentSurcharge, &p.MinProjectValue)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
