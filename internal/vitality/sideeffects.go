package vitality

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/civicpulse/internal/domain"
)

// BadgePolicy controls the support-driven badge granted to issue creators.
type BadgePolicy struct {
	SupportThreshold float64
}

// SideEffects dispatches the consequences of a fired tier transition: a
// status-history record, an idempotent badge grant for the issue's creator,
// and a fan-out event. Each effect is isolated; one failing does not stop
// the others. The status append is the audit trail and runs first.
type SideEffects struct {
	history   StatusHistoryStore
	badges    BadgeStore
	publisher Publisher
	policy    BadgePolicy
	messages  map[domain.EscalationTier]string
	logger    *zap.Logger
}

// NewSideEffects constructs the dispatcher. Messages name the threshold that
// triggered each tier so the audit trail stays meaningful under non-default
// configuration.
func NewSideEffects(history StatusHistoryStore, badges BadgeStore, publisher Publisher, thresholds Thresholds, policy BadgePolicy, logger *zap.Logger) *SideEffects {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SideEffects{
		history:   history,
		badges:    badges,
		publisher: publisher,
		policy:    policy,
		messages: map[domain.EscalationTier]string{
			domain.TierLocal:    fmt.Sprintf("Issue escalated to local representatives due to %.0f%%+ support", thresholds.Local),
			domain.TierState:    fmt.Sprintf("Issue escalated to state level due to %.0f%%+ support", thresholds.State),
			domain.TierNational: fmt.Sprintf("Issue escalated to national level due to %.0f%%+ support", thresholds.National),
		},
		logger: logger,
	}
}

// OnTransition runs all side effects for the transition. The returned error
// reflects only the status append; badge and publish failures are logged
// with issue id and tier but never block or reverse the earlier writes.
func (s *SideEffects) OnTransition(ctx context.Context, t Transition) error {
	fields := []zap.Field{
		zap.String("issue_id", t.IssueID),
		zap.String("tier", string(t.Tier)),
	}

	appendErr := s.history.AppendStatusUpdate(ctx, t.IssueID, t.Tier, s.messages[t.Tier])
	if appendErr != nil {
		s.logger.Error("status update append failed", append(fields, zap.Error(appendErr))...)
	}

	if t.CreatorID != "" && t.SupportPercentage >= s.policy.SupportThreshold {
		err := s.badges.GrantBadgeIfAbsent(ctx, t.CreatorID,
			domain.BadgeVoiceHero, "Voice Hero",
			fmt.Sprintf("Created an issue with %.0f%%+ community support", s.policy.SupportThreshold))
		if err != nil {
			s.logger.Error("badge grant failed", append(fields, zap.Error(err))...)
		}
	}

	if s.publisher != nil {
		event := Event{Type: EventTypeEscalation, IssueID: t.IssueID, Tier: t.Tier}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("escalation publish failed", append(fields, zap.Error(err))...)
		}
	}

	if appendErr != nil {
		return fmt.Errorf("append status update: %w", appendErr)
	}
	return nil
}
