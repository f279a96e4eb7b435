package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/meisterleads/backend/internal/models"
)

type ContractorRepo struct {
	db DB
}

func NewContractorRepo(db DB) *ContractorRepo {
	return &ContractorRepo{db: db}
}

const contractorColumns = `id, email, password_hash, company_name, trades, postal_code, city,
	service_radius_km, min_project_value, wallet_balance, quality_score,
	accepts_urgent, approval_status, purchase_count, created_at, updated_at`

func scanContractor(row pgx.Row) (*models.Contractor, error) {
	var c models.Contractor
	err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.CompanyName, &c.Trades, &c.PostalCode,
		&c.City, &c.ServiceRadiusKm, &c.MinProjectValue, &c.WalletBalance, &c.QualityScore,
		&c.AcceptsUrgent, &c.ApprovalStatus, &c.PurchaseCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContractorRepo) Create(ctx context.Context, c *models.Contractor) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO contractors (id, email, password_hash, company_name, trades, postal_code, city,
			service_radius_km, min_project_value, wallet_balance, quality_score,
			accepts_urgent, approval_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`, c.ID, c.Email, c.PasswordHash, c.CompanyName, c.Trades, c.PostalCode, c.City,
		c.ServiceRadiusKm, c.MinProjectValue, c.WalletBalance, c.QualityScore,
		c.AcceptsUrgent, c.ApprovalStatus).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *ContractorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Contractor, error) {
	return scanContractor(r.db.QueryRow(ctx, `SELECT `+contractorColumns+` FROM contractors WHERE id = $1`, id))
}

func (r *ContractorRepo) GetByEmail(ctx context.Context, email string) (*models.Contractor, error) {
	return scanContractor(r.db.QueryRow(ctx, `SELECT `+contractorColumns+` FROM contractors WHERE email = $1`, email))
}

// UpdateProfile sets the matching-relevant profile fields.
func (r *ContractorRepo) UpdateProfile(ctx context.Context, c *models.Contractor) error {
	_, err := r.db.Exec(ctx, `
		UPDATE contractors SET company_name = $2, trades = $3, postal_code = $4, city = $5,
			service_radius_km = $6, min_project_value = $7, accepts_urgent = $8, updated_at = now()
		WHERE id = $1
	`, c.ID, c.CompanyName, c.Trades, c.PostalCode, c.City,
		c.ServiceRadiusKm, c.MinProjectValue, c.AcceptsUrgent)
	return err
}

// FindCandidates returns approved contractors offering the trade whose wallet
// can cover the lead price. Affordability is re-checked precisely during
// scoring; this is the coarse pre-filter.
func (r *ContractorRepo) FindCandidates(ctx context.Context, trade string, leadPrice decimal.Decimal) ([]*models.Contractor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+contractorColumns+`
		FROM contractors
		WHERE $1 = ANY(trades) AND approval_status = 'approved' AND wallet_balance >= $2
		ORDER BY created_at
	`, trade, leadPrice)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// DebitWallet atomically deducts amount if the balance covers it, and bumps
// the lifetime purchase counter. Returns pgx.ErrNoRows when the balance is
// insufficient. Call within the purchase transaction.
func (r *ContractorRepo) DebitWallet(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	err := tx.QueryRow(ctx, `
		UPDATE contractors
		SET wallet_balance = wallet_balance - $1, purchase_count = purchase_count + 1, updated_at = now()
		WHERE id = $2 AND wallet_balance >= $1
		RETURNING wallet_balance
	`, amount, id).Scan(&newBalance)
	return newBalance, err
}

// WalletBalanceTx reads the current balance inside the transaction, used to
// report the actual balance on an insufficient-funds rejection.
func (r *ContractorRepo) WalletBalanceTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRow(ctx, `SELECT wallet_balance FROM contractors WHERE id = $1`, id).Scan(&balance)
	return balance, err
}
