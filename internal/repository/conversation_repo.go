package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meisterleads/backend/internal/models"
)

type ConversationRepo struct {
	db DB
}

func NewConversationRepo(db DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// Ensure creates the conversation for the (lead, contractor) pair if it does
// not exist. Returns the conversation ID and whether it was newly created.
func (r *ConversationRepo) Ensure(ctx context.Context, leadID, contractorID, customerID uuid.UUID) (uuid.UUID, bool, error) {
	id := uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO conversations (id, lead_id, contractor_id, customer_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (lead_id, contractor_id) DO NOTHING
		RETURNING id
	`, id, leadID, contractorID, customerID).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, err
	}
	// Already exists; fetch the existing ID.
	err = r.db.QueryRow(ctx, `
		SELECT id FROM conversations WHERE lead_id = $1 AND contractor_id = $2
	`, leadID, contractorID).Scan(&id)
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, false, nil
}

func (r *ConversationRepo) CreateMessage(ctx context.Context, m *models.Message) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, sender_role, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, m.ID, m.ConversationID, m.SenderID, m.SenderRole, m.Body).Scan(&m.CreatedAt)
}
