package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/meisterleads/backend/internal/models"
)

type NotificationRepo struct {
	db DB
}

func NewNotificationRepo(db DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO notifications (id, contractor_id, lead_id, title, body, data, channel, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, n.ID, n.ContractorID, n.LeadID, n.Title, n.Body, n.Data, n.Channel, n.ExpiresAt).Scan(&n.CreatedAt)
}

func (r *NotificationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	err := r.db.QueryRow(ctx, `
		SELECT id, contractor_id, lead_id, title, body, data, channel, expires_at, read_at, delivered_at, created_at
		FROM notifications WHERE id = $1
	`, id).Scan(&n.ID, &n.ContractorID, &n.LeadID, &n.Title, &n.Body, &n.Data, &n.Channel,
		&n.ExpiresAt, &n.ReadAt, &n.DeliveredAt, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkRead marks all unread notifications about the lead for this contractor.
// Best-effort from the purchase flow; zero rows affected is not an error.
func (r *NotificationRepo) MarkRead(ctx context.Context, leadID, contractorID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notifications SET read_at = now()
		WHERE lead_id = $1 AND contractor_id = $2 AND read_at IS NULL
	`, leadID, contractorID)
	return err
}

func (r *NotificationRepo) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notifications SET delivered_at = now() WHERE id = $1
	`, id)
	return err
}
