package repository

import (
	"context"

	"github.com/meisterleads/backend/internal/models"
)

type APIKeyRepo struct {
	db DB
}

func NewAPIKeyRepo(db DB) *APIKeyRepo {
	return &APIKeyRepo{db: db}
}

// APIKeyWithContractor is returned by FindByKeyHash (api_key joined with its
// contractor).
type APIKeyWithContractor struct {
	APIKey     models.APIKey
	Contractor models.Contractor
}

func (r *APIKeyRepo) Create(ctx context.Context, k *models.APIKey) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO api_keys (id, contractor_id, key_hash, key_prefix, is_active)
		VALUES ($1, $2, $3, $4, $5)
	`, k.ID, k.ContractorID, k.KeyHash, k.KeyPrefix, k.IsActive)
	return err
}

// FindByKeyHash returns the api_key and joined contractor for the given key
// hash, or an error if not found or inactive.
func (r *APIKeyRepo) FindByKeyHash(ctx context.Context, keyHash string) (*APIKeyWithContractor, error) {
	var out APIKeyWithContractor
	err := r.db.QueryRow(ctx, `
		SELECT k.id, k.contractor_id, k.key_hash, k.key_prefix, k.is_active,
		       c.id, c.email, c.password_hash, c.company_name, c.trades, c.postal_code, c.city,
		       c.service_radius_km, c.min_project_value, c.wallet_balance, c.quality_score,
		       c.accepts_urgent, c.approval_status, c.purchase_count, c.created_at, c.updated_at
		FROM api_keys k
		INNER JOIN contractors c ON c.id = k.contractor_id
		WHERE k.key_hash = $1 AND k.is_active = TRUE
	`, keyHash).Scan(
		&out.APIKey.ID, &out.APIKey.ContractorID, &out.APIKey.KeyHash, &out.APIKey.KeyPrefix, &out.APIKey.IsActive,
		&out.Contractor.ID, &out.Contractor.Email, &out.Contractor.PasswordHash, &out.Contractor.CompanyName,
		&out.Contractor.Trades, &out.Contractor.PostalCode, &out.Contractor.City,
		&out.Contractor.ServiceRadiusKm, &out.Contractor.MinProjectValue, &out.Contractor.WalletBalance,
		&out.Contractor.QualityScore, &out.Contractor.AcceptsUrgent, &out.Contractor.ApprovalStatus,
		&out.Contractor.PurchaseCount, &out.Contractor.CreatedAt, &out.Contractor.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
