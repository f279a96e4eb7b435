package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meisterleads/backend/internal/models"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func testContractor(balance int64) *models.Contractor {
	return &models.Contractor{
		ID:              uuid.New(),
		WalletBalance:   dec(balance),
		QualityScore:    80,
		AcceptsUrgent:   true,
		MinProjectValue: decimal.Zero,
	}
}

func testLead(urgency string) *models.Lead {
	return &models.Lead{
		ID:        uuid.New(),
		Urgency:   urgency,
		BudgetMax: decPtr(5000),
	}
}

func TestScoreContractor_WorkedExample(t *testing.T) {
	// Urgent lead at €30, contractor at the regional centroid (0 km),
	// quality 80, sufficient balance, budget fits:
	// 100 - 0.5*0 + 0.3*80 + 20 = 144.
	c := testContractor(100)
	lead := testLead(models.UrgencyHigh)

	score := ScoreContractor(c, lead, 0, dec(30))
	if score != 144 {
		t.Errorf("expected score 144, got %f", score)
	}
}

func TestScoreContractor_AffordabilityGate(t *testing.T) {
	// Wallet below the lead price forces 0, no matter how good the rest is.
	c := testContractor(10)
	lead := testLead(models.UrgencyHigh)

	if score := ScoreContractor(c, lead, 0, dec(30)); score != 0 {
		t.Errorf("expected hard gate score 0, got %f", score)
	}
}

func TestScoreContractor_DistanceMonotonicity(t *testing.T) {
	c := testContractor(100)
	lead := testLead(models.UrgencyLow)

	prev := ScoreContractor(c, lead, 0, dec(30))
	for _, km := range []float64{10, 25, 50, 100} {
		score := ScoreContractor(c, lead, km, dec(30))
		if score >= prev {
			t.Errorf("score at %f km (%f) not lower than closer score (%f)", km, score, prev)
		}
		prev = score
	}
}

func TestScoreContractor_QualityMonotonicity(t *testing.T) {
	c := testContractor(100)
	lead := testLead(models.UrgencyLow)

	c.QualityScore = 0
	prev := ScoreContractor(c, lead, 10, dec(30))
	for _, quality := range []float64{20, 40, 60, 80, 100} {
		c.QualityScore = quality
		score := ScoreContractor(c, lead, 10, dec(30))
		if score <= prev {
			t.Errorf("score at quality %f (%f) not higher than lower-quality score (%f)", quality, score, prev)
		}
		prev = score
	}
}

func TestScoreContractor_UrgencyMismatchPenalty(t *testing.T) {
	c := testContractor(100)
	c.AcceptsUrgent = false
	lead := testLead(models.UrgencyHigh)

	with := ScoreContractor(c, lead, 0, dec(30))
	c.AcceptsUrgent = true
	without := ScoreContractor(c, lead, 0, dec(30))

	if without-with != urgencyMismatchPenalty {
		t.Errorf("expected penalty of %f, got %f", urgencyMismatchPenalty, without-with)
	}
}

func TestScoreContractor_NoPenaltyOnNonUrgentLead(t *testing.T) {
	c := testContractor(100)
	c.AcceptsUrgent = false
	lead := testLead(models.UrgencyMedium)

	if score := ScoreContractor(c, lead, 0, dec(30)); score != 144 {
		t.Errorf("refusing urgent work must not cost on a medium lead, got %f", score)
	}
}

func TestScoreContractor_ClampedAtZero(t *testing.T) {
	c := testContractor(100)
	c.QualityScore = 0
	c.AcceptsUrgent = false
	c.MinProjectValue = dec(10000) // no budget fit
	lead := testLead(models.UrgencyHigh)

	// 100 - 0.5*150 + 0 - 50 = -25 -> clamp to 0.
	if score := ScoreContractor(c, lead, 150, dec(30)); score != 0 {
		t.Errorf("expected clamp to 0, got %f", score)
	}
}

func TestScoreContractor_BudgetFitFallsBackToEstimatedValue(t *testing.T) {
	c := testContractor(100)
	c.MinProjectValue = dec(1000)
	lead := testLead(models.UrgencyLow)
	lead.BudgetMax = nil
	lead.EstimatedValue = decPtr(2000)

	withFit := ScoreContractor(c, lead, 0, dec(30))
	lead.EstimatedValue = decPtr(500)
	withoutFit := ScoreContractor(c, lead, 0, dec(30))

	if withFit-withoutFit != budgetFitBonus {
		t.Errorf("expected budget fit bonus %f, got delta %f", budgetFitBonus, withFit-withoutFit)
	}
}

func TestScoreContractor_NoBudgetInfoTriviallyFits(t *testing.T) {
	// With neither budget_max nor estimated_value the contractor's own
	// minimum is used, which always fits.
	c := testContractor(100)
	c.MinProjectValue = dec(5000)
	lead := testLead(models.UrgencyLow)
	lead.BudgetMax = nil
	lead.EstimatedValue = nil

	if score := ScoreContractor(c, lead, 0, dec(30)); score != 144 {
		t.Errorf("expected trivially-fitting budget to earn the bonus, got %f", score)
	}
}
