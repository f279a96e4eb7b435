package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meisterleads/backend/internal/services"
)

// MatchRunner is the contract the handler needs from the matching engine.
type MatchRunner interface {
	Match(ctx context.Context, leadID uuid.UUID) (*services.MatchResult, error)
	RecordFallbackMatches(ctx context.Context, leadID uuid.UUID, contractorIDs []uuid.UUID) (int, error)
}

// MatchHandler serves the synchronous matching endpoints.
type MatchHandler struct {
	Matcher MatchRunner
	Logger  *slog.Logger
}

type matchResponse struct {
	Success     bool                         `json:"success"`
	Matches     int                          `json:"matches"`
	LeadPrice   decimal.Decimal              `json:"lead_price"`
	Contractors []services.OfferedContractor `json:"contractors"`
}

// RunMatch handles POST /v1/leads/{id}/match: run the engine now and report
// the offered set. Re-runs are harmless.
func (h *MatchHandler) RunMatch(w http.ResponseWriter, r *http.Request) {
	leadID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid lead id")
		return
	}

	result, err := h.Matcher.Match(r.Context(), leadID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLeadNotFound):
			writeError(w, http.StatusNotFound, "lead_not_found", "lead not found")
		case errors.Is(err, services.ErrPricingConfigMissing):
			writeError(w, http.StatusUnprocessableEntity, "pricing_config_missing", err.Error())
		default:
			h.Logger.Error("run matching", "lead_id", leadID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal", "matching failed")
		}
		return
	}

	contractors := result.Offered
	if contractors == nil {
		contractors = []services.OfferedContractor{}
	}
	writeJSON(w, http.StatusOK, matchResponse{
		Success:     true,
		Matches:     result.MatchesCreated,
		LeadPrice:   result.LeadPrice,
		Contractors: contractors,
	})
}

type fallbackRequest struct {
	ContractorIDs []uuid.UUID `json:"contractor_ids"`
}

// RecordFallback handles POST /v1/leads/{id}/matches/fallback: persist
// operator-picked matches for a lead automatic matching could not serve.
func (h *MatchHandler) RecordFallback(w http.ResponseWriter, r *http.Request) {
	leadID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid lead id")
		return
	}
	var req fallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON")
		return
	}
	if len(req.ContractorIDs) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_payload", "contractor_ids is required")
		return
	}

	created, err := h.Matcher.RecordFallbackMatches(r.Context(), leadID, req.ContractorIDs)
	if err != nil {
		if errors.Is(err, services.ErrLeadNotFound) {
			writeError(w, http.StatusNotFound, "lead_not_found", "lead not found")
			return
		}
		h.Logger.Error("record fallback matches", "lead_id", leadID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "recording matches failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "matches": created})
}
