package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meisterleads/backend/internal/models"
)

type TransactionRepo struct {
	db DB
}

func NewTransactionRepo(db DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// CreateTx appends a ledger entry inside the given transaction, so the debit
// and its ledger record commit or roll back together.
func (r *TransactionRepo) CreateTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error {
	return tx.QueryRow(ctx, `
		INSERT INTO transactions (id, contractor_id, lead_id, type, amount, balance_after, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, t.ID, t.ContractorID, t.LeadID, t.Type, t.Amount, t.BalanceAfter, t.Description, t.Metadata).Scan(&t.CreatedAt)
}

func (r *TransactionRepo) ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]*models.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, contractor_id, lead_id, type, amount, balance_after, description, metadata, created_at
		FROM transactions WHERE contractor_id = $1 ORDER BY created_at DESC
	`, contractorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.ContractorID, &t.LeadID, &t.Type, &t.Amount,
			&t.BalanceAfter, &t.Description, &t.Metadata, &t.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

// CountByLeadAndContractor reports how many ledger entries exist for the pair.
// Used by tests and reconciliation to assert the one-purchase-one-entry
// invariant.
func (r *TransactionRepo) CountByLeadAndContractor(ctx context.Context, leadID, contractorID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM transactions WHERE lead_id = $1 AND contractor_id = $2
	`, leadID, contractorID).Scan(&n)
	return n, err
}
