package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/meisterleads/backend/internal/middleware"
	"github.com/meisterleads/backend/internal/services"
)

// Purchaser is the contract the handler needs from the purchase flow.
type Purchaser interface {
	Purchase(ctx context.Context, leadID, contractorID uuid.UUID, voucherCode string) (*services.PurchaseResult, error)
}

// PurchaseHandler serves POST /v1/leads/{id}/purchase.
type PurchaseHandler struct {
	Purchases Purchaser
	Logger    *slog.Logger
}

type purchaseRequest struct {
	VoucherCode string `json:"voucher_code"`
}

type purchaseResponse struct {
	Success        bool        `json:"success"`
	NewBalance     string      `json:"new_balance"`
	PricePaid      string      `json:"price_paid"`
	VoucherApplied bool        `json:"voucher_applied"`
	Lead           interface{} `json:"lead"`
}

// PurchaseLead buys the lead for the authenticated contractor. Business
// rejections come back as a kind-discriminated JSON error.
func (h *PurchaseHandler) PurchaseLead(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	leadID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid lead id")
		return
	}

	var req purchaseRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON")
			return
		}
	}

	result, err := h.Purchases.Purchase(r.Context(), leadID, contractor.ID, req.VoucherCode)
	if err != nil {
		h.writePurchaseError(w, leadID, err)
		return
	}

	writeJSON(w, http.StatusOK, purchaseResponse{
		Success:        true,
		NewBalance:     result.NewBalance.StringFixed(2),
		PricePaid:      result.PricePaid.StringFixed(2),
		VoucherApplied: result.VoucherApplied,
		Lead:           result.Lead,
	})
}

func (h *PurchaseHandler) writePurchaseError(w http.ResponseWriter, leadID uuid.UUID, err error) {
	var insufficientErr *services.InsufficientBalanceError
	switch {
	case errors.Is(err, services.ErrContractorNotFound):
		writeError(w, http.StatusNotFound, "contractor_not_found", "contractor not found")
	case errors.Is(err, services.ErrLeadNotFound):
		writeError(w, http.StatusNotFound, "lead_not_found", "lead not found")
	case errors.Is(err, services.ErrNoMatchFound):
		writeError(w, http.StatusForbidden, "no_match_found", "this lead was not offered to you")
	case errors.Is(err, services.ErrAlreadyPurchased):
		writeError(w, http.StatusConflict, "already_purchased", "lead already purchased")
	case errors.Is(err, services.ErrLeadSoldOut):
		writeError(w, http.StatusConflict, "lead_sold_out", "lead has reached its purchase limit")
	case errors.As(err, &insufficientErr):
		writeErrorCtx(w, http.StatusPaymentRequired, "insufficient_balance", "wallet balance too low",
			map[string]interface{}{
				"required": insufficientErr.Required.StringFixed(2),
				"balance":  insufficientErr.Balance.StringFixed(2),
			})
	case errors.Is(err, services.ErrPricingConfigMissing):
		writeError(w, http.StatusUnprocessableEntity, "pricing_config_missing", err.Error())
	default:
		h.Logger.Error("purchase failed", "lead_id", leadID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "purchase failed")
	}
}
