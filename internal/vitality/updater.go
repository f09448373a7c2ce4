package vitality

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/civicpulse/internal/domain"
	"github.com/spec-kit/civicpulse/internal/observability"
)

// PopulationLookup resolves the population of a ward.
type PopulationLookup func(wardNumber string) int

// TransitionHandler runs side effects for a fired tier transition.
type TransitionHandler interface {
	OnTransition(ctx context.Context, t Transition) error
}

// Transition carries everything side effects need about a fired escalation.
type Transition struct {
	IssueID           string
	Tier              domain.EscalationTier
	CreatorID         string
	SupportPercentage float64
}

// UpdaterDeps bundles the updater's collaborators.
type UpdaterDeps struct {
	Ledger     VoteLedger
	Issues     IssueStore
	Effects    TransitionHandler
	Population PopulationLookup
	Thresholds Thresholds
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Updater recomputes an issue's aggregate after any vote change. Recomputes
// for the same issue are serialized; different issues proceed in parallel.
type Updater struct {
	ledger     VoteLedger
	issues     IssueStore
	effects    TransitionHandler
	population PopulationLookup
	thresholds Thresholds
	logger     *zap.Logger
	metrics    *observability.Metrics
	locks      *keyedMutex
	now        func() time.Time
}

// NewUpdater constructs the updater.
func NewUpdater(deps UpdaterDeps) *Updater {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Updater{
		ledger:     deps.Ledger,
		issues:     deps.Issues,
		effects:    deps.Effects,
		population: deps.Population,
		thresholds: deps.Thresholds,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		locks:      newKeyedMutex(),
		now:        time.Now,
	}
}

// Recompute reads the full rating set for the issue, recomputes the
// aggregate, writes it atomically and evaluates escalation, all inside the
// issue's critical section. A failed escalation evaluation does not roll
// back the aggregate write; it is returned wrapped in ErrEscalation with the
// fresh score intact.
func (u *Updater) Recompute(ctx context.Context, issueID string) (Score, error) {
	unlock := u.locks.Lock(issueID)
	defer unlock()

	meta, err := u.issues.GetIssueMeta(ctx, issueID)
	if err != nil {
		return Score{}, fmt.Errorf("get issue meta: %w", err)
	}

	ratings, err := u.ledger.ListRatings(ctx, issueID)
	if err != nil {
		return Score{}, fmt.Errorf("list ratings: %w", err)
	}

	score, err := ComputeScore(ratings, meta.CreatedAt, u.now(), u.population(meta.WardNumber))
	if err != nil {
		return Score{}, err
	}

	if err := u.issues.WriteAggregate(ctx, issueID, score.Aggregate()); err != nil {
		return Score{}, fmt.Errorf("write aggregate: %w", err)
	}
	u.metrics.RecordRecompute()

	if err := u.evaluate(ctx, issueID, meta, score); err != nil {
		u.logger.Warn("escalation evaluation failed",
			zap.String("issue_id", issueID),
			zap.Error(err))
		return score, fmt.Errorf("%w: %v", ErrEscalation, err)
	}
	return score, nil
}

// evaluate runs the escalation state machine against the fresh support
// percentage. At most one side-effect dispatch happens per tier per issue,
// no matter how many times evaluate runs after a threshold was crossed.
func (u *Updater) evaluate(ctx context.Context, issueID string, meta IssueMeta, score Score) error {
	current, err := u.issues.GetEscalationTier(ctx, issueID)
	if err != nil {
		return fmt.Errorf("get escalation tier: %w", err)
	}

	candidate := u.thresholds.TierFor(score.SupportPercentage)
	if !ShouldFire(current, candidate) {
		return nil
	}

	if err := u.issues.SetEscalationTier(ctx, issueID, candidate); err != nil {
		return fmt.Errorf("set escalation tier: %w", err)
	}
	u.metrics.RecordEscalation(string(candidate))
	u.logger.Info("issue escalated",
		zap.String("issue_id", issueID),
		zap.String("from", string(current)),
		zap.String("to", string(candidate)),
		zap.Float64("support_percentage", score.SupportPercentage))

	if u.effects == nil {
		return nil
	}
	return u.effects.OnTransition(ctx, Transition{
		IssueID:           issueID,
		Tier:              candidate,
		CreatorID:         meta.CreatedBy,
		SupportPercentage: score.SupportPercentage,
	})
}
