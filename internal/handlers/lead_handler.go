package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/meisterleads/backend/internal/models"
	"github.com/meisterleads/backend/internal/services"
)

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// LeadStore is the subset of lead persistence the handler needs.
type LeadStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, l *models.Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
}

// EnqueueMatchTxFunc inserts the matching job in the same transaction as the
// lead row, so a committed lead is always eventually matched.
type EnqueueMatchTxFunc func(ctx context.Context, tx pgx.Tx, leadID uuid.UUID) error

// LeadHandler serves lead intake and lookup.
type LeadHandler struct {
	Pool           TxBeginner
	Leads          LeadStore
	Validator      *services.Validator
	EnqueueMatchTx EnqueueMatchTxFunc
	Logger         *slog.Logger
}

type createLeadRequest struct {
	CustomerID     string           `json:"customer_id"`
	Trade          string           `json:"trade"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	PostalCode     string           `json:"postal_code"`
	City           string           `json:"city"`
	Urgency        string           `json:"urgency"`
	BudgetMin      *decimal.Decimal `json:"budget_min"`
	BudgetMax      *decimal.Decimal `json:"budget_max"`
	EstimatedValue *decimal.Decimal `json:"estimated_value"`
	MediaCount     int              `json:"media_count"`
	ContactName    string           `json:"contact_name"`
	ContactPhone   string           `json:"contact_phone"`
	ContactEmail   string           `json:"contact_email"`
}

type createLeadResponse struct {
	LeadID string `json:"lead_id"`
	Status string `json:"status"`
}

// CreateLead handles POST /v1/leads.
// Validate against schema (hard reject) -> persist -> enqueue matching -> 202.
func (h *LeadHandler) CreateLead(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "cannot read body")
		return
	}

	if err := h.Validator.ValidateLead(payload); err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeError(w, http.StatusUnprocessableEntity, "invalid_payload", err.Error())
			return
		}
		h.Logger.Error("validate lead", "error", err)
		writeError(w, http.StatusBadRequest, "invalid_payload", "lead validation failed")
		return
	}

	var req createLeadRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON")
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid customer_id")
		return
	}

	lead := &models.Lead{
		ID:             uuid.New(),
		CustomerID:     customerID,
		Trade:          req.Trade,
		Title:          req.Title,
		Description:    req.Description,
		PostalCode:     req.PostalCode,
		City:           req.City,
		Urgency:        req.Urgency,
		BudgetMin:      req.BudgetMin,
		BudgetMax:      req.BudgetMax,
		EstimatedValue: req.EstimatedValue,
		MediaCount:     req.MediaCount,
		Status:         models.LeadStatusPublished,
		ContactName:    req.ContactName,
		ContactPhone:   req.ContactPhone,
		ContactEmail:   req.ContactEmail,
	}

	tx, err := h.Pool.Begin(r.Context())
	if err != nil {
		h.Logger.Error("begin tx", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	defer tx.Rollback(r.Context())

	if err := h.Leads.CreateTx(r.Context(), tx, lead); err != nil {
		h.Logger.Error("create lead", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to create lead")
		return
	}
	if err := h.EnqueueMatchTx(r.Context(), tx, lead.ID); err != nil {
		h.Logger.Error("enqueue matching", "lead_id", lead.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to schedule matching")
		return
	}
	if err := tx.Commit(r.Context()); err != nil {
		h.Logger.Error("commit lead tx", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	writeJSON(w, http.StatusAccepted, createLeadResponse{
		LeadID: lead.ID.String(),
		Status: lead.Status,
	})
}

// GetLead handles GET /v1/leads/{id}. Contact details are withheld; they
// unlock only through purchase.
func (h *LeadHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid lead id")
		return
	}
	lead, err := h.Leads.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "lead_not_found", "lead not found")
			return
		}
		h.Logger.Error("get lead", "lead_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	lead.ContactName = ""
	lead.ContactPhone = ""
	lead.ContactEmail = ""
	writeJSON(w, http.StatusOK, lead)
}
