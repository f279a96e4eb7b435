package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/meisterleads/backend/internal/middleware"
	"github.com/meisterleads/backend/internal/models"
)

// LedgerReader lists a contractor's wallet ledger.
type LedgerReader interface {
	ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]*models.Transaction, error)
}

// ContractorReader reloads the contractor for a fresh balance.
type ContractorReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contractor, error)
}

// WalletHandler serves GET /v1/wallet: current balance plus ledger history.
// Read-only; wallet credits arrive through the external funding integration.
type WalletHandler struct {
	Contractors ContractorReader
	Ledger      LedgerReader
	Logger      *slog.Logger
}

type walletResponse struct {
	Balance      string                `json:"balance"`
	Transactions []*models.Transaction `json:"transactions"`
}

func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	contractor := middleware.ContractorFromCtx(r.Context())
	if contractor == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	// Re-read for the balance: the context copy may predate a purchase.
	fresh, err := h.Contractors.GetByID(r.Context(), contractor.ID)
	if err != nil {
		h.Logger.Error("load contractor", "contractor_id", contractor.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	txs, err := h.Ledger.ListByContractor(r.Context(), contractor.ID)
	if err != nil {
		h.Logger.Error("list transactions", "contractor_id", contractor.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	if txs == nil {
		txs = []*models.Transaction{}
	}

	writeJSON(w, http.StatusOK, walletResponse{
		Balance:      fresh.WalletBalance.StringFixed(2),
		Transactions: txs,
	})
}
