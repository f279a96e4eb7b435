package services

import (
	"github.com/shopspring/decimal"

	"github.com/meisterleads/backend/internal/models"
)

// Scoring weights. Distance is penalized linearly, quality contributes up to
// +30, a workable budget adds +20, and refusing urgent work on an urgent lead
// costs 50.
const (
	scoreBase              = 100.0
	distancePenaltyPerKm   = 0.5
	qualityWeight          = 0.3
	budgetFitBonus         = 20.0
	urgencyMismatchPenalty = 50.0
)

// ScoreContractor computes a contractor's fitness for a lead. Affordability
// is a hard gate: a contractor whose wallet cannot cover the lead price
// scores 0 no matter how close or well-rated they are. A result of 0 means
// "not a match".
func ScoreContractor(c *models.Contractor, lead *models.Lead, distanceKm float64, finalPrice decimal.Decimal) float64 {
	score := scoreBase
	score -= distanceKm * distancePenaltyPerKm
	score += c.QualityScore * qualityWeight

	if c.WalletBalance.LessThan(finalPrice) {
		return 0
	}

	if projectBudget(lead, c).GreaterThanOrEqual(c.MinProjectValue) {
		score += budgetFitBonus
	}

	if lead.Urgency == models.UrgencyHigh && !c.AcceptsUrgent {
		score -= urgencyMismatchPenalty
	}

	if score < 0 {
		return 0
	}
	return score
}

// projectBudget is the best available estimate of the project's value: the
// stated budget ceiling, the estimated value, or failing both the
// contractor's own minimum (which trivially fits).
func projectBudget(lead *models.Lead, c *models.Contractor) decimal.Decimal {
	if lead.BudgetMax != nil && lead.BudgetMax.IsPositive() {
		return *lead.BudgetMax
	}
	if lead.EstimatedValue != nil && lead.EstimatedValue.IsPositive() {
		return *lead.EstimatedValue
	}
	return c.MinProjectValue
}
