package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/meisterleads/backend/internal/services"
)

// MatchLeadArgs asks the matching engine to run for a freshly published lead.
// The job is inserted in the same transaction as the lead row, so a committed
// lead is always eventually matched.
type MatchLeadArgs struct {
	LeadID uuid.UUID `json:"lead_id"`
}

func (MatchLeadArgs) Kind() string { return "match_lead" }

// Matcher is the contract the worker needs from the matching engine.
type Matcher interface {
	Match(ctx context.Context, leadID uuid.UUID) (*services.MatchResult, error)
}

type MatchLeadWorker struct {
	river.WorkerDefaults[MatchLeadArgs]
	matcher Matcher
	log     *slog.Logger
}

func NewMatchLeadWorker(matcher Matcher, log *slog.Logger) *MatchLeadWorker {
	if log == nil {
		log = slog.Default()
	}
	return &MatchLeadWorker{matcher: matcher, log: log}
}

func (w *MatchLeadWorker) Work(ctx context.Context, job *river.Job[MatchLeadArgs]) error {
	result, err := w.matcher.Match(ctx, job.Args.LeadID)
	if err != nil {
		// Missing lead or pricing config cannot heal by retrying.
		if errors.Is(err, services.ErrLeadNotFound) || errors.Is(err, services.ErrPricingConfigMissing) {
			w.log.Error("matching cancelled", "lead_id", job.Args.LeadID, "error", err)
			return river.JobCancel(err)
		}
		return err
	}
	w.log.Info("lead matched",
		"lead_id", job.Args.LeadID,
		"matches_created", result.MatchesCreated,
		"price", result.LeadPrice)
	return nil
}
