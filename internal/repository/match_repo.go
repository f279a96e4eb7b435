package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meisterleads/backend/internal/models"
)

type MatchRepo struct {
	db DB
}

func NewMatchRepo(db DB) *MatchRepo {
	return &MatchRepo{db: db}
}

const matchColumns = `id, lead_id, contractor_id, score, origin, status, purchased, purchased_at, created_at`

func scanMatch(row pgx.Row) (*models.Match, error) {
	var m models.Match
	err := row.Scan(&m.ID, &m.LeadID, &m.ContractorID, &m.Score, &m.Origin, &m.Status,
		&m.Purchased, &m.PurchasedAt, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Upsert inserts the match if the (lead, contractor) pair does not exist yet.
// Re-running the matching engine therefore never duplicates matches. Returns
// true when a new row was created.
func (r *MatchRepo) Upsert(ctx context.Context, m *models.Match) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO matches (id, lead_id, contractor_id, score, origin, status, purchased)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		ON CONFLICT (lead_id, contractor_id) DO NOTHING
	`, m.ID, m.LeadID, m.ContractorID, m.Score, m.Origin, m.Status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *MatchRepo) GetByLeadAndContractor(ctx context.Context, leadID, contractorID uuid.UUID) (*models.Match, error) {
	return scanMatch(r.db.QueryRow(ctx, `
		SELECT `+matchColumns+` FROM matches WHERE lead_id = $1 AND contractor_id = $2
	`, leadID, contractorID))
}

func (r *MatchRepo) ListByLead(ctx context.Context, leadID uuid.UUID) ([]*models.Match, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+matchColumns+` FROM matches WHERE lead_id = $1 ORDER BY score DESC, created_at
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// CountPurchased counts sold copies of the lead. Call within the purchase
// transaction, after LeadRepo.LockForUpdate, so the count cannot move under
// the cap check.
func (r *MatchRepo) CountPurchased(ctx context.Context, tx pgx.Tx, leadID uuid.UUID) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM matches WHERE lead_id = $1 AND purchased = TRUE
	`, leadID).Scan(&n)
	return n, err
}

// MarkPurchased flips the purchased flag, conditionally on it still being
// false. Returns false when the match was already purchased, which makes
// duplicate purchase requests roll back without charging twice.
func (r *MatchRepo) MarkPurchased(ctx context.Context, tx pgx.Tx, leadID, contractorID uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE matches
		SET purchased = TRUE, purchased_at = now(), status = 'active'
		WHERE lead_id = $1 AND contractor_id = $2 AND purchased = FALSE
	`, leadID, contractorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
