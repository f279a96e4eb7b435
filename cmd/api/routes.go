package main

import (
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meisterleads/backend/internal/auth"
	"github.com/meisterleads/backend/internal/handlers"
	"github.com/meisterleads/backend/internal/middleware"
	"github.com/meisterleads/backend/internal/repository"
	"github.com/meisterleads/backend/internal/services"
)

// v1Deps bundles everything the route table needs.
type v1Deps struct {
	Pool            *pgxpool.Pool
	LeadRepo        *repository.LeadRepo
	ContractorRepo  *repository.ContractorRepo
	TransactionRepo *repository.TransactionRepo
	APIKeyRepo      *repository.APIKeyRepo
	Matching        *services.MatchingService
	Purchases       *services.PurchaseService
	Validator       *services.Validator
	AuthHandler     *auth.Handler
	EnqueueMatchTx  handlers.EnqueueMatchTxFunc
	Logger          *slog.Logger
}

// RegisterV1Routes adds the /v1/ API endpoints to the given mux.
// Middleware chain for contractor-facing endpoints: APIKeyAuth -> handler.
func RegisterV1Routes(mux *http.ServeMux, d v1Deps) {
	leadHandler := &handlers.LeadHandler{
		Pool:           d.Pool,
		Leads:          d.LeadRepo,
		Validator:      d.Validator,
		EnqueueMatchTx: d.EnqueueMatchTx,
		Logger:         d.Logger,
	}
	matchHandler := &handlers.MatchHandler{
		Matcher: d.Matching,
		Logger:  d.Logger,
	}
	purchaseHandler := &handlers.PurchaseHandler{
		Purchases: d.Purchases,
		Logger:    d.Logger,
	}
	walletHandler := &handlers.WalletHandler{
		Contractors: d.ContractorRepo,
		Ledger:      d.TransactionRepo,
		Logger:      d.Logger,
	}
	contractorHandler := &handlers.ContractorHandler{
		Contractors: d.ContractorRepo,
		Logger:      d.Logger,
	}

	authMW := middleware.APIKeyAuth(d.APIKeyRepo)

	// Contractor account
	mux.HandleFunc("POST /v1/auth/register", d.AuthHandler.Register)
	mux.HandleFunc("POST /v1/auth/login", d.AuthHandler.Login)
	mux.HandleFunc("POST /v1/contractors", d.AuthHandler.Register)
	mux.HandleFunc("GET /v1/contractors/{id}", contractorHandler.GetContractor)
	mux.Handle("GET /v1/contractors/me", authMW(http.HandlerFunc(contractorHandler.GetMe)))
	mux.Handle("PUT /v1/contractors/me", authMW(http.HandlerFunc(contractorHandler.UpdateProfile)))

	// Leads and matching
	mux.HandleFunc("POST /v1/leads", leadHandler.CreateLead)
	mux.HandleFunc("GET /v1/leads/{id}", leadHandler.GetLead)
	mux.HandleFunc("POST /v1/leads/{id}/match", matchHandler.RunMatch)
	mux.HandleFunc("POST /v1/leads/{id}/matches/fallback", matchHandler.RecordFallback)

	// Purchase and wallet (API-key auth)
	mux.Handle("POST /v1/leads/{id}/purchase", authMW(http.HandlerFunc(purchaseHandler.PurchaseLead)))
	mux.Handle("GET /v1/wallet", authMW(http.HandlerFunc(walletHandler.GetWallet)))
}
