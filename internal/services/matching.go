package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/meisterleads/backend/internal/geo"
	"github.com/meisterleads/backend/internal/models"
)

// maxOffered is how many contractors a new lead is offered to.
const maxOffered = 5

// notificationTTL is how long a lead offer notification stays actionable.
const notificationTTL = 24 * time.Hour

// MatchLeadStore is the lead access the matching engine needs.
type MatchLeadStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	SetPricesOnce(ctx context.Context, id uuid.UUID, basePrice, finalPrice decimal.Decimal) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// MatchPricingStore resolves per-trade pricing configuration.
type MatchPricingStore interface {
	GetByTrade(ctx context.Context, trade string) (*models.TradePricing, error)
}

// MatchContractorStore queries the candidate pool.
type MatchContractorStore interface {
	FindCandidates(ctx context.Context, trade string, leadPrice decimal.Decimal) ([]*models.Contractor, error)
}

// MatchStore persists match records.
type MatchStore interface {
	Upsert(ctx context.Context, m *models.Match) (bool, error)
}

// MatchNotificationStore persists offer notifications.
type MatchNotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

// EnqueueNotifyFunc hands a persisted notification to the delivery queue.
// Typically a closure over river's insert; may be nil (no delivery).
type EnqueueNotifyFunc func(ctx context.Context, notificationID uuid.UUID) error

// MatchingService prices a lead, scores and ranks the candidate contractors,
// persists the offered set as match records, and emits offer notifications.
type MatchingService struct {
	Leads         MatchLeadStore
	Pricing       MatchPricingStore
	Contractors   MatchContractorStore
	Matches       MatchStore
	Notifications MatchNotificationStore
	EnqueueNotify EnqueueNotifyFunc
	Logger        *slog.Logger
}

func NewMatchingService(
	leads MatchLeadStore,
	pricing MatchPricingStore,
	contractors MatchContractorStore,
	matches MatchStore,
	notifications MatchNotificationStore,
	enqueueNotify EnqueueNotifyFunc,
	logger *slog.Logger,
) *MatchingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchingService{
		Leads:         leads,
		Pricing:       pricing,
		Contractors:   contractors,
		Matches:       matches,
		Notifications: notifications,
		EnqueueNotify: enqueueNotify,
		Logger:        logger,
	}
}

// OfferedContractor is one entry of the offered set.
type OfferedContractor struct {
	ContractorID uuid.UUID `json:"id"`
	DistanceKm   float64   `json:"distance_km"`
	Score        int       `json:"score"`
}

// MatchResult is the outcome of running the engine for one lead. Zero
// eligible contractors is a success with MatchesCreated == 0, not an error.
type MatchResult struct {
	MatchesCreated int
	LeadPrice      decimal.Decimal
	Offered        []OfferedContractor
}

type scoredCandidate struct {
	contractor *models.Contractor
	distanceKm float64
	score      float64
}

// Match runs the engine once for the lead. Safe to invoke repeatedly: the
// price is persisted only on the first run and match upserts never duplicate
// (lead, contractor) pairs.
func (s *MatchingService) Match(ctx context.Context, leadID uuid.UUID) (*MatchResult, error) {
	lead, err := s.Leads.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("load lead: %w", err)
	}

	cfg, err := s.Pricing.GetByTrade(ctx, lead.Trade)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrPricingConfigMissing, lead.Trade)
		}
		return nil, fmt.Errorf("load pricing config: %w", err)
	}

	finalPrice, err := s.resolvePrice(ctx, lead, cfg)
	if err != nil {
		return nil, err
	}

	candidates, err := s.Contractors.FindCandidates(ctx, lead.Trade, finalPrice)
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}
	if len(candidates) == 0 {
		s.Logger.Info("no contractors available for lead", "lead_id", leadID, "trade", lead.Trade)
		return &MatchResult{LeadPrice: finalPrice}, nil
	}

	offered := rankCandidates(lead, candidates, finalPrice)

	result := &MatchResult{LeadPrice: finalPrice}
	for _, c := range offered {
		score := int(math.Round(c.score))
		created, err := s.Matches.Upsert(ctx, &models.Match{
			ID:           uuid.New(),
			LeadID:       lead.ID,
			ContractorID: c.contractor.ID,
			Score:        score,
			Origin:       models.MatchOriginAutomatic,
			Status:       models.MatchStatusPending,
		})
		if err != nil {
			return nil, fmt.Errorf("persist match: %w", err)
		}
		result.Offered = append(result.Offered, OfferedContractor{
			ContractorID: c.contractor.ID,
			DistanceKm:   c.distanceKm,
			Score:        score,
		})
		if created {
			result.MatchesCreated++
			s.notifyContractor(ctx, lead, c.contractor, finalPrice, c.distanceKm)
		}
	}

	if result.MatchesCreated > 0 {
		if err := s.Leads.UpdateStatus(ctx, lead.ID, models.LeadStatusMatched); err != nil {
			s.Logger.Warn("update lead status", "lead_id", lead.ID, "error", err)
		}
	}
	return result, nil
}

// RecordFallbackMatches records operator-picked contractors for a lead that
// automatic matching could not serve. It shares the per-pair uniqueness
// guarantee with Match and returns how many records were newly created.
func (s *MatchingService) RecordFallbackMatches(ctx context.Context, leadID uuid.UUID, contractorIDs []uuid.UUID) (int, error) {
	if _, err := s.Leads.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrLeadNotFound
		}
		return 0, fmt.Errorf("load lead: %w", err)
	}
	created := 0
	for _, contractorID := range contractorIDs {
		ok, err := s.Matches.Upsert(ctx, &models.Match{
			ID:           uuid.New(),
			LeadID:       leadID,
			ContractorID: contractorID,
			Origin:       models.MatchOriginFallback,
			Status:       models.MatchStatusPending,
		})
		if err != nil {
			return created, fmt.Errorf("persist fallback match: %w", err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// resolvePrice returns the lead's final price, computing and persisting it on
// first matching and reusing the stored value on re-runs.
func (s *MatchingService) resolvePrice(ctx context.Context, lead *models.Lead, cfg *models.TradePricing) (decimal.Decimal, error) {
	if lead.FinalPrice != nil {
		return *lead.FinalPrice, nil
	}
	finalPrice := PriceLead(cfg, lead.Urgency, lead.MediaCount, len(lead.Description))
	set, err := s.Leads.SetPricesOnce(ctx, lead.ID, cfg.BasePrice, finalPrice)
	if err != nil {
		return decimal.Zero, fmt.Errorf("persist lead price: %w", err)
	}
	if !set {
		// A concurrent run priced the lead first; the stored price wins.
		fresh, err := s.Leads.GetByID(ctx, lead.ID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("reload priced lead: %w", err)
		}
		if fresh.FinalPrice == nil {
			return decimal.Zero, fmt.Errorf("lead %s has no price after concurrent pricing", lead.ID)
		}
		return *fresh.FinalPrice, nil
	}
	lead.BasePrice = &cfg.BasePrice
	lead.FinalPrice = &finalPrice
	return finalPrice, nil
}

// rankCandidates filters the pool by service radius and budget ceiling,
// scores the rest, and returns the top candidates by score. The sort is
// stable, so equal scores keep query order.
func rankCandidates(lead *models.Lead, pool []*models.Contractor, finalPrice decimal.Decimal) []scoredCandidate {
	leadPoint := geo.ApproximateFromPostal(lead.PostalCode)

	var candidates []scoredCandidate
	for _, c := range pool {
		dist := geo.DistanceKm(leadPoint, geo.ApproximateFromPostal(c.PostalCode))
		if dist > c.ServiceRadiusKm {
			continue
		}
		if lead.BudgetMax != nil && lead.BudgetMax.IsPositive() && c.MinProjectValue.GreaterThan(*lead.BudgetMax) {
			continue
		}
		score := ScoreContractor(c, lead, dist, finalPrice)
		if score == 0 {
			continue
		}
		candidates = append(candidates, scoredCandidate{contractor: c, distanceKm: dist, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > maxOffered {
		candidates = candidates[:maxOffered]
	}
	return candidates
}

// notifyContractor persists the offer notification and hands it to the
// delivery queue. Both steps are best-effort: a failure here never unwinds
// the match records.
func (s *MatchingService) notifyContractor(ctx context.Context, lead *models.Lead, c *models.Contractor, price decimal.Decimal, distanceKm float64) {
	data, _ := json.Marshal(map[string]any{
		"lead_id":     lead.ID,
		"trade":       lead.Trade,
		"price":       price,
		"distance_km": distanceKm,
	})
	n := &models.Notification{
		ID:           uuid.New(),
		ContractorID: c.ID,
		LeadID:       lead.ID,
		Title:        "New lead in your area",
		Body:         fmt.Sprintf("%s in %s %s, available for %s", lead.Title, redactPostal(lead.PostalCode), lead.City, price.StringFixed(2)),
		Data:         data,
		Channel:      models.ChannelPush,
		ExpiresAt:    time.Now().Add(notificationTTL),
	}
	if err := s.Notifications.Create(ctx, n); err != nil {
		s.Logger.Warn("create offer notification", "lead_id", lead.ID, "contractor_id", c.ID, "error", err)
		return
	}
	if s.EnqueueNotify == nil {
		return
	}
	if err := s.EnqueueNotify(ctx, n.ID); err != nil {
		s.Logger.Warn("enqueue offer notification", "notification_id", n.ID, "error", err)
	}
}

// redactPostal withholds the identifying suffix of a postal code; only the
// coarse region prefix is shown before purchase.
func redactPostal(code string) string {
	if len(code) <= 2 {
		return code
	}
	return code[:2] + strings.Repeat("x", len(code)-2)
}
