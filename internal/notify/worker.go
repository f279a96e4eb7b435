package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"github.com/meisterleads/backend/internal/models"
)

// NotificationArgs delivers one persisted notification to the external sink.
type NotificationArgs struct {
	NotificationID uuid.UUID `json:"notification_id"`
}

func (NotificationArgs) Kind() string { return "deliver_notification" }

// NotificationStore is the persistence contract the delivery worker needs.
type NotificationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error
}

// DeliveryWorker POSTs notifications to the configured sink URL and records
// delivery. Expired or already-read notifications are skipped silently.
type DeliveryWorker struct {
	river.WorkerDefaults[NotificationArgs]
	store      NotificationStore
	sinkURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func NewDeliveryWorker(store NotificationStore, sinkURL string, log *slog.Logger) *DeliveryWorker {
	if log == nil {
		log = slog.Default()
	}
	return &DeliveryWorker{
		store:      store,
		sinkURL:    sinkURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

func (w *DeliveryWorker) Work(ctx context.Context, job *river.Job[NotificationArgs]) error {
	n, err := w.store.GetByID(ctx, job.Args.NotificationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return river.JobCancel(fmt.Errorf("notification %s not found", job.Args.NotificationID))
		}
		return err
	}
	if n.DeliveredAt != nil || n.ReadAt != nil {
		return nil
	}
	if time.Now().After(n.ExpiresAt) {
		w.log.Info("notification expired before delivery", "notification_id", n.ID)
		return nil
	}
	if w.sinkURL == "" {
		// No sink configured (local development); mark and move on.
		return w.store.MarkDelivered(ctx, n.ID)
	}

	body, err := json.Marshal(n)
	if err != nil {
		return river.JobCancel(fmt.Errorf("marshal notification: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.sinkURL, bytes.NewReader(body))
	if err != nil {
		return river.JobCancel(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification sink returned status %d", resp.StatusCode)
	}

	if err := w.store.MarkDelivered(ctx, n.ID); err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}
