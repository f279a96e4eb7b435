package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/meisterleads/backend/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory mocks for the matching engine's store interfaces.
// ---------------------------------------------------------------------------

type mockLeads struct {
	mu    sync.Mutex
	leads map[uuid.UUID]*models.Lead
}

func newMockLeads(leads ...*models.Lead) *mockLeads {
	m := &mockLeads{leads: make(map[uuid.UUID]*models.Lead)}
	for _, l := range leads {
		cp := *l
		m.leads[l.ID] = &cp
	}
	return m
}

func (m *mockLeads) GetByID(_ context.Context, id uuid.UUID) (*models.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *l
	return &cp, nil
}

func (m *mockLeads) SetPricesOnce(_ context.Context, id uuid.UUID, basePrice, finalPrice decimal.Decimal) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return false, fmt.Errorf("lead %s not found", id)
	}
	if l.FinalPrice != nil {
		return false, nil
	}
	l.BasePrice = &basePrice
	l.FinalPrice = &finalPrice
	return true, nil
}

func (m *mockLeads) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return fmt.Errorf("lead %s not found", id)
	}
	l.Status = status
	return nil
}

type mockPricing struct {
	configs map[string]*models.TradePricing
}

func (m *mockPricing) GetByTrade(_ context.Context, trade string) (*models.TradePricing, error) {
	cfg, ok := m.configs[trade]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cfg, nil
}

type mockCandidates struct {
	contractors []*models.Contractor
	err         error
}

func (m *mockCandidates) FindCandidates(_ context.Context, _ string, leadPrice decimal.Decimal) ([]*models.Contractor, error) {
	if m.err != nil {
		return nil, m.err
	}
	// Mirror the repository's coarse wallet pre-filter.
	var out []*models.Contractor
	for _, c := range m.contractors {
		if c.WalletBalance.GreaterThanOrEqual(leadPrice) {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockMatches struct {
	mu      sync.Mutex
	matches map[string]*models.Match
}

func newMockMatches() *mockMatches {
	return &mockMatches{matches: make(map[string]*models.Match)}
}

func matchKey(leadID, contractorID uuid.UUID) string {
	return leadID.String() + "/" + contractorID.String()
}

func (m *mockMatches) Upsert(_ context.Context, match *models.Match) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := matchKey(match.LeadID, match.ContractorID)
	if _, exists := m.matches[key]; exists {
		return false, nil
	}
	cp := *match
	m.matches[key] = &cp
	return true, nil
}

func (m *mockMatches) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matches)
}

type mockNotifications struct {
	mu      sync.Mutex
	created []*models.Notification
	err     error
}

func (m *mockNotifications) Create(_ context.Context, n *models.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.created = append(m.created, &cp)
	return nil
}

func (m *mockNotifications) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

func (m *mockNotifications) all() []*models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Notification(nil), m.created...)
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func matchableLead() *models.Lead {
	return &models.Lead{
		ID:          uuid.New(),
		CustomerID:  uuid.New(),
		Trade:       "plumbing",
		Title:       "Replace broken boiler",
		Description: "The boiler stopped working last night",
		PostalCode:  "4020",
		City:        "Linz",
		Urgency:     models.UrgencyMedium,
		Status:      models.LeadStatusPublished,
	}
}

func matchableContractor(postal string, balance int64) *models.Contractor {
	return &models.Contractor{
		ID:              uuid.New(),
		PostalCode:      postal,
		ServiceRadiusKm: 50,
		MinProjectValue: decimal.Zero,
		WalletBalance:   decimal.NewFromInt(balance),
		QualityScore:    70,
		AcceptsUrgent:   true,
		ApprovalStatus:  models.ApprovalApproved,
	}
}

func newTestEngine(leads *mockLeads, contractors []*models.Contractor) (*MatchingService, *mockMatches, *mockNotifications) {
	matches := newMockMatches()
	notifications := &mockNotifications{}
	pricing := &mockPricing{configs: map[string]*models.TradePricing{
		"plumbing": {Trade: "plumbing", BasePrice: decimal.NewFromInt(20), UrgentSurcharge: decimal.NewFromInt(10)},
	}}
	svc := NewMatchingService(leads, pricing, &mockCandidates{contractors: contractors}, matches, notifications, nil, nil)
	return svc, matches, notifications
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestMatch_CreatesMatchesAndNotifications(t *testing.T) {
	lead := matchableLead()
	leads := newMockLeads(lead)
	contractors := []*models.Contractor{
		matchableContractor("4020", 100),
		matchableContractor("4030", 100),
	}
	svc, matches, notifications := newTestEngine(leads, contractors)

	result, err := svc.Match(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if result.MatchesCreated != 2 {
		t.Errorf("expected 2 matches, got %d", result.MatchesCreated)
	}
	if !result.LeadPrice.Equal(decimal.NewFromInt(20)) {
		t.Errorf("expected lead price 20, got %s", result.LeadPrice)
	}
	if matches.count() != 2 {
		t.Errorf("expected 2 persisted matches, got %d", matches.count())
	}
	if notifications.count() != 2 {
		t.Errorf("expected 2 notifications, got %d", notifications.count())
	}
	for _, n := range notifications.all() {
		ttl := time.Until(n.ExpiresAt)
		if ttl < 23*time.Hour || ttl > 24*time.Hour {
			t.Errorf("expected notification to expire in ~24h, got %s", ttl)
		}
		if strings.Contains(n.Body, "4020") {
			t.Errorf("notification body leaks the full postal code: %q", n.Body)
		}
		if !strings.Contains(n.Body, "40xx") {
			t.Errorf("expected redacted postal code in body, got %q", n.Body)
		}
	}

	updated, _ := leads.GetByID(context.Background(), lead.ID)
	if updated.Status != models.LeadStatusMatched {
		t.Errorf("expected lead status matched, got %s", updated.Status)
	}
}

func TestMatch_IdempotentRerun(t *testing.T) {
	lead := matchableLead()
	leads := newMockLeads(lead)
	svc, matches, notifications := newTestEngine(leads, []*models.Contractor{
		matchableContractor("4020", 100),
	})

	first, err := svc.Match(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := svc.Match(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.MatchesCreated != 1 || second.MatchesCreated != 0 {
		t.Errorf("expected 1 then 0 new matches, got %d then %d", first.MatchesCreated, second.MatchesCreated)
	}
	if matches.count() != 1 {
		t.Errorf("rerun duplicated matches: %d rows", matches.count())
	}
	if notifications.count() != 1 {
		t.Errorf("rerun re-notified: %d notifications", notifications.count())
	}
	if !second.LeadPrice.Equal(first.LeadPrice) {
		t.Errorf("rerun recomputed the price: %s vs %s", second.LeadPrice, first.LeadPrice)
	}
}

func TestMatch_PricePersistedOnce(t *testing.T) {
	lead := matchableLead()
	lead.Urgency = models.UrgencyHigh
	leads := newMockLeads(lead)
	svc, _, _ := newTestEngine(leads, nil)

	result, err := svc.Match(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if !result.LeadPrice.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected urgent price 30, got %s", result.LeadPrice)
	}

	stored, _ := leads.GetByID(context.Background(), lead.ID)
	if stored.FinalPrice == nil || !stored.FinalPrice.Equal(decimal.NewFromInt(30)) {
		t.Errorf("final price not persisted, got %v", stored.FinalPrice)
	}
	if stored.BasePrice == nil || !stored.BasePrice.Equal(decimal.NewFromInt(20)) {
		t.Errorf("base price not persisted, got %v", stored.BasePrice)
	}
}

func TestMatch_ZeroCandidatesIsSuccess(t *testing.T) {
	lead := matchableLead()
	leads := newMockLeads(lead)
	svc, matches, _ := newTestEngine(leads, nil)

	result, err := svc.Match(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("expected success with zero candidates, got %v", err)
	}
	if result.MatchesCreated != 0 || matches.count() != 0 {
		t.Errorf("expected no matches, got %d", result.MatchesCreated)
	}
}

func TestMatch_LeadNotFound(t *testing.T) {
	svc, _, _ := newTestEngine(newMockLeads(), nil)
	_, err := svc.Match(context.Background(), uuid.New())
	if !errors.Is(err, ErrLeadNotFound) {
		t.Errorf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestMatch_PricingConfigMissing(t *testing.T) {
	lead := matchableLead()
	lead.Trade = "roofing"
	svc, _, _ := newTestEngine(newMockLeads(lead), nil)

	_, err := svc.Match(context.Background(), lead.ID)
	if !errors.Is(err, ErrPricingConfigMissing) {
		t.Errorf("expected ErrPricingConfigMissing, got %v", err)
	}
}

func TestMatch_RadiusFilter(t *testing.T) {
	lead := matchableLead() // Linz
	near := matchableContractor("4020", 100)
	far := matchableContractor("9020", 100) // Klagenfurt, ~190 km away
	svc, _, _ := newTestEngine(newMockLeads(lead), []*models.Contractor{near, far})

	result, err := svc.Match(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(result.Offered) != 1 || result.Offered[0].ContractorID != near.ID {
		t.Errorf("expected only the nearby contractor, got %+v", result.Offered)
	}
}

func TestMatch_AffordabilityGate(t *testing.T) {
	lead := matchableLead()
	rich := matchableContractor("4020", 100)
	broke := matchableContractor("4020", 5)
	svc, _, _ := newTestEngine(newMockLeads(lead), []*models.Contractor{rich, broke})

	result, err := svc.Match(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(result.Offered) != 1 || result.Offered[0].ContractorID != rich.ID {
		t.Errorf("expected broke contractor excluded, got %+v", result.Offered)
	}
}

func TestMatch_BudgetCeilingFilter(t *testing.T) {
	lead := matchableLead()
	budget := decimal.NewFromInt(500)
	lead.BudgetMax = &budget

	fits := matchableContractor("4020", 100)
	tooBig := matchableContractor("4020", 100)
	tooBig.MinProjectValue = decimal.NewFromInt(1000)
	svc, _, _ := newTestEngine(newMockLeads(lead), []*models.Contractor{fits, tooBig})

	result, err := svc.Match(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(result.Offered) != 1 || result.Offered[0].ContractorID != fits.ID {
		t.Errorf("expected over-minimum contractor excluded, got %+v", result.Offered)
	}
}

func TestMatch_TopFiveOnly(t *testing.T) {
	lead := matchableLead()
	var pool []*models.Contractor
	for i := 0; i < 8; i++ {
		c := matchableContractor("4020", 100)
		c.QualityScore = float64(10 * i) // distinct scores, best last
		pool = append(pool, c)
	}
	svc, matches, _ := newTestEngine(newMockLeads(lead), pool)

	result, err := svc.Match(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(result.Offered) != 5 {
		t.Fatalf("expected 5 offered, got %d", len(result.Offered))
	}
	if matches.count() != 5 {
		t.Errorf("expected 5 persisted matches, got %d", matches.count())
	}
	// Highest quality first.
	best := result.Offered[0]
	if best.ContractorID != pool[7].ID {
		t.Errorf("expected best-quality contractor ranked first")
	}
	for i := 1; i < len(result.Offered); i++ {
		if result.Offered[i].Score > result.Offered[i-1].Score {
			t.Errorf("offered set not sorted by score descending")
		}
	}
}

func TestMatch_NotificationFailureIsNonFatal(t *testing.T) {
	lead := matchableLead()
	leads := newMockLeads(lead)
	matches := newMockMatches()
	notifications := &mockNotifications{err: errors.New("sink down")}
	pricing := &mockPricing{configs: map[string]*models.TradePricing{
		"plumbing": {Trade: "plumbing", BasePrice: decimal.NewFromInt(20), UrgentSurcharge: decimal.NewFromInt(10)},
	}}
	svc := NewMatchingService(leads, pricing,
		&mockCandidates{contractors: []*models.Contractor{matchableContractor("4020", 100)}},
		matches, notifications, nil, nil)

	result, err := svc.Match(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("notification failure must not fail matching: %v", err)
	}
	if result.MatchesCreated != 1 {
		t.Errorf("expected match created despite notification failure, got %d", result.MatchesCreated)
	}
}

func TestRecordFallbackMatches_Idempotent(t *testing.T) {
	lead := matchableLead()
	leads := newMockLeads(lead)
	svc, matches, _ := newTestEngine(leads, nil)

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	created, err := svc.RecordFallbackMatches(context.Background(), lead.ID, ids)
	if err != nil {
		t.Fatalf("RecordFallbackMatches: %v", err)
	}
	if created != 2 {
		t.Errorf("expected 2 created, got %d", created)
	}

	again, err := svc.RecordFallbackMatches(context.Background(), lead.ID, ids)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if again != 0 || matches.count() != 2 {
		t.Errorf("fallback rerun duplicated matches: created=%d rows=%d", again, matches.count())
	}
}

func TestRecordFallbackMatches_LeadNotFound(t *testing.T) {
	svc, _, _ := newTestEngine(newMockLeads(), nil)
	_, err := svc.RecordFallbackMatches(context.Background(), uuid.New(), []uuid.UUID{uuid.New()})
	if !errors.Is(err, ErrLeadNotFound) {
		t.Errorf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestRedactPostal(t *testing.T) {
	cases := []struct{ in, want string }{
		{"4020", "40xx"},
		{"1010", "10xx"},
		{"10", "10"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := redactPostal(tc.in); got != tc.want {
			t.Errorf("redactPostal(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
