package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/meisterleads/backend/internal/middleware"
	"github.com/meisterleads/backend/internal/models"
)

// ContractorStore is the contractor persistence the handler needs.
type ContractorStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contractor, error)
	UpdateProfile(ctx context.Context, c *models.Contractor) error
}

// ContractorHandler serves contractor profile endpoints.
type ContractorHandler struct {
	Contractors ContractorStore
	Logger      *slog.Logger
}

// GetContractor handles GET /v1/contractors/{id}. Public profile view:
// wallet balance and email are withheld.
func (h *ContractorHandler) GetContractor(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid contractor id")
		return
	}
	c, err := h.Contractors.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "contractor_not_found", "contractor not found")
			return
		}
		h.Logger.Error("get contractor", "contractor_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	c.Email = ""
	c.WalletBalance = decimal.Zero
	writeJSON(w, http.StatusOK, c)
}

type updateProfileRequest struct {
	CompanyName     string          `json:"company_name"`
	Trades          []string        `json:"trades"`
	PostalCode      string          `json:"postal_code"`
	City            string          `json:"city"`
	ServiceRadiusKm float64         `json:"service_radius_km"`
	MinProjectValue decimal.Decimal `json:"min_project_value"`
	AcceptsUrgent   bool            `json:"accepts_urgent"`
}

// UpdateProfile handles PUT /v1/contractors/me for the authenticated
// contractor.
func (h *ContractorHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON")
		return
	}
	if req.CompanyName == "" || len(req.Trades) == 0 || req.PostalCode == "" {
		writeError(w, http.StatusBadRequest, "invalid_payload", "missing required fields")
		return
	}
	if req.ServiceRadiusKm <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_payload", "service_radius_km must be > 0")
		return
	}

	updated := *contractor
	updated.CompanyName = req.CompanyName
	updated.Trades = req.Trades
	updated.PostalCode = req.PostalCode
	updated.City = req.City
	updated.ServiceRadiusKm = req.ServiceRadiusKm
	updated.MinProjectValue = req.MinProjectValue
	updated.AcceptsUrgent = req.AcceptsUrgent

	if err := h.Contractors.UpdateProfile(r.Context(), &updated); err != nil {
		h.Logger.Error("update profile", "contractor_id", contractor.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "profile update failed")
		return
	}
	writeJSON(w, http.StatusOK, &updated)
}

// GetMe handles GET /v1/contractors/me: the authenticated contractor's own
// full profile, balance included.
func (h *ContractorHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	fresh, err := h.Contractors.GetByID(r.Context(), contractor.ID)
	if err != nil {
		h.Logger.Error("load contractor", "contractor_id", contractor.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, fresh)
}
