package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/meisterleads/backend/internal/models"
	"github.com/meisterleads/backend/internal/repository"
)

type contextKey string

const ctxContractorKey contextKey = "contractor"

// APIKeyRepo is the interface used by API key auth middleware.
type APIKeyRepo interface {
	FindByKeyHash(ctx context.Context, keyHash string) (*repository.APIKeyWithContractor, error)
}

// APIKeyAuth authenticates requests by hashing the Bearer token (SHA-256)
// and looking it up in api_keys. On success it sets the contractor into the
// request context.
func APIKeyAuth(apiKeyRepo APIKeyRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				http.Error(w, `{"error":"missing or malformed Authorization header"}`, http.StatusUnauthorized)
				return
			}

			hash := hashKey(raw)
			result, err := apiKeyRepo.FindByKeyHash(r.Context(), hash)
			if err != nil {
				http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxContractorKey, &result.Contractor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContractorFromCtx returns the authenticated contractor or nil.
func ContractorFromCtx(ctx context.Context) *models.Contractor {
	c, _ := ctx.Value(ctxContractorKey).(*models.Contractor)
	return c
}

// WithContractor returns a context carrying the given contractor.
func WithContractor(ctx context.Context, c *models.Contractor) context.Context {
	return context.WithValue(ctx, ctxContractorKey, c)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// HashKey is the canonical API key hashing used for storage and lookup.
func HashKey(raw string) string {
	return hashKey(raw)
}

func hashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
