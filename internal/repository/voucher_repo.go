package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/meisterleads/backend/internal/models"
)

// ErrVoucherNotRedeemable is returned when the code is unknown, inactive,
// outside its validity window, or its usage cap is exhausted. The purchase
// flow treats it as a soft failure and proceeds at full price.
var ErrVoucherNotRedeemable = errors.New("voucher not redeemable")

type VoucherRepo struct {
	db DB
}

func NewVoucherRepo(db DB) *VoucherRepo {
	return &VoucherRepo{db: db}
}

// Redeem increments the usage counter if and only if the voucher is active,
// within its validity window, and under its cap. The conditional UPDATE makes
// concurrent redemptions unable to push used_count past max_uses. Runs inside
// the purchase transaction so an aborted purchase returns the use.
func (r *VoucherRepo) Redeem(ctx context.Context, tx pgx.Tx, code string) (*models.Voucher, error) {
	var v models.Voucher
	err := tx.QueryRow(ctx, `
		UPDATE vouchers
		SET used_count = used_count + 1
		WHERE code = $1 AND active = TRUE
		  AND now() >= valid_from AND now() <= valid_until
		  AND used_count < max_uses
		RETURNING id, code, discount_type, discount_value, valid_from, valid_until, max_uses, used_count, active
	`, code).Scan(&v.ID, &v.Code, &v.DiscountType, &v.DiscountValue, &v.ValidFrom, &v.ValidUntil,
		&v.MaxUses, &v.UsedCount, &v.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVoucherNotRedeemable
		}
		return nil, err
	}
	return &v, nil
}

func (r *VoucherRepo) GetByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var v models.Voucher
	err := r.db.QueryRow(ctx, `
		SELECT id, code, discount_type, discount_value, valid_from, valid_until, max_uses, used_count, active
		FROM vouchers WHERE code = $1
	`, code).Scan(&v.ID, &v.Code, &v.DiscountType, &v.DiscountValue, &v.ValidFrom, &v.ValidUntil,
		&v.MaxUses, &v.UsedCount, &v.Active)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
