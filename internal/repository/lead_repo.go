package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/meisterleads/backend/internal/models"
)

type LeadRepo struct {
	db DB
}

func NewLeadRepo(db DB) *LeadRepo {
	return &LeadRepo{db: db}
}

const leadColumns = `id, customer_id, trade, title, description, postal_code, city, urgency,
	budget_min, budget_max, estimated_value, media_count, base_price, final_price,
	status, contact_name, contact_phone, contact_email, created_at, updated_at`

func scanLead(row pgx.Row) (*models.Lead, error) {
	var l models.Lead
	err := row.Scan(&l.ID, &l.CustomerID, &l.Trade, &l.Title, &l.Description, &l.PostalCode,
		&l.City, &l.Urgency, &l.BudgetMin, &l.BudgetMax, &l.EstimatedValue, &l.MediaCount,
		&l.BasePrice, &l.FinalPrice, &l.Status, &l.ContactName, &l.ContactPhone,
		&l.ContactEmail, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LeadRepo) Create(ctx context.Context, l *models.Lead) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO leads (id, customer_id, trade, title, description, postal_code, city, urgency,
			budget_min, budget_max, estimated_value, media_count, status,
			contact_name, contact_phone, contact_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at
	`, l.ID, l.CustomerID, l.Trade, l.Title, l.Description, l.PostalCode, l.City, l.Urgency,
		l.BudgetMin, l.BudgetMax, l.EstimatedValue, l.MediaCount, l.Status,
		l.ContactName, l.ContactPhone, l.ContactEmail).Scan(&l.CreatedAt, &l.UpdatedAt)
}

// CreateTx inserts the lead inside the given transaction (lead intake commits
// the row together with the matching job enqueue).
func (r *LeadRepo) CreateTx(ctx context.Context, tx pgx.Tx, l *models.Lead) error {
	return tx.QueryRow(ctx, `
		INSERT INTO leads (id, customer_id, trade, title, description, postal_code, city, urgency,
			budget_min, budget_max, estimated_value, media_count, status,
			contact_name, contact_phone, contact_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at
	`, l.ID, l.CustomerID, l.Trade, l.Title, l.Description, l.PostalCode, l.City, l.Urgency,
		l.BudgetMin, l.BudgetMax, l.EstimatedValue, l.MediaCount, l.Status,
		l.ContactName, l.ContactPhone, l.ContactEmail).Scan(&l.CreatedAt, &l.UpdatedAt)
}

func (r *LeadRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	return scanLead(r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
}

// LockForUpdate locks the lead row for the duration of the transaction. The
// purchase flow takes this lock to serialize the sold-out cap check per lead.
func (r *LeadRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var locked uuid.UUID
	return tx.QueryRow(ctx, `SELECT id FROM leads WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
}

// SetPricesOnce persists base and final price if they have not been set yet.
// Returns false when the lead was already priced; callers must then reuse the
// stored price.
func (r *LeadRepo) SetPricesOnce(ctx context.Context, id uuid.UUID, basePrice, finalPrice decimal.Decimal) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE leads SET base_price = $2, final_price = $3, updated_at = now()
		WHERE id = $1 AND final_price IS NULL
	`, id, basePrice, finalPrice)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LeadRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE leads SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	return err
}
