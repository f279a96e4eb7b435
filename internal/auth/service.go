package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/meisterleads/backend/internal/models"
)

// ErrDuplicateEmail is returned when registering with an email that already exists.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrInvalidCredentials is returned on bad email/password combinations.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ContractorStore is the contractor persistence the auth service needs.
type ContractorStore interface {
	Create(ctx context.Context, c *models.Contractor) error
	GetByEmail(ctx context.Context, email string) (*models.Contractor, error)
}

// APIKeyStore persists issued API keys.
type APIKeyStore interface {
	Create(ctx context.Context, k *models.APIKey) error
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*models.Contractor, string, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (uuid.UUID, error)
}

type service struct {
	contractors ContractorStore
	apiKeys     APIKeyStore
	secret      []byte
}

func NewService(contractors ContractorStore, apiKeys APIKeyStore) *service {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "supersecretmvp"
	}
	return &service{contractors: contractors, apiKeys: apiKeys, secret: []byte(secret)}
}

var _ Service = (*service)(nil)

// Register creates a contractor in pending approval state and issues their
// API key. The raw key is returned exactly once; only its hash is stored.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*models.Contractor, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	c := &models.Contractor{
		ID:              uuid.New(),
		Email:           req.Email,
		PasswordHash:    string(hash),
		CompanyName:     req.CompanyName,
		Trades:          req.Trades,
		PostalCode:      req.PostalCode,
		City:            req.City,
		ServiceRadiusKm: req.ServiceRadiusKm,
		MinProjectValue: req.MinProjectValue,
		WalletBalance:   decimal.Zero,
		AcceptsUrgent:   req.AcceptsUrgent,
		ApprovalStatus:  models.ApprovalPending,
	}
	if err := s.contractors.Create(ctx, c); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, "", ErrDuplicateEmail
		}
		return nil, "", err
	}

	rawKey, apiKey, err := newAPIKey(c.ID)
	if err != nil {
		return nil, "", err
	}
	if err := s.apiKeys.Create(ctx, apiKey); err != nil {
		return nil, "", fmt.Errorf("issue api key: %w", err)
	}
	return c, rawKey, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	c, err := s.contractors.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.issueToken(c.ID)
}

func (s *service) issueToken(contractorID uuid.UUID) (string, error) {
	c := jwt.RegisteredClaims{
		Subject:   contractorID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}

func (s *service) ValidateToken(ctx context.Context, token string) (uuid.UUID, error) {
	tok, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	c, ok := tok.Claims.(*jwt.RegisteredClaims)
	if !ok || !tok.Valid {
		return uuid.Nil, errors.New("invalid token")
	}
	return uuid.Parse(c.Subject)
}

// newAPIKey generates a raw key and its storable record. Keys look like
// ml_<40 hex chars>; the stored hash is SHA-256 of the full raw key.
func newAPIKey(contractorID uuid.UUID) (string, *models.APIKey, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, err
	}
	raw := "ml_" + hex.EncodeToString(buf)
	sum := sha256.Sum256([]byte(raw))
	return raw, &models.APIKey{
		ID:           uuid.New(),
		ContractorID: contractorID,
		KeyHash:      hex.EncodeToString(sum[:]),
		KeyPrefix:    raw[:10],
		IsActive:     true,
	}, nil
}
