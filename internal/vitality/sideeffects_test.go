package vitality

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civicpulse/internal/domain"
)

func transitionFixture() Transition {
	return Transition{
		IssueID:           "issue-1",
		Tier:              domain.TierState,
		CreatorID:         "creator",
		SupportPercentage: 26,
	}
}

func TestOnTransitionRunsAllEffects(t *testing.T) {
	status := &statusRecorder{}
	badges := newBadgeRecorder()
	publish := &publishRecorder{}
	effects := NewSideEffects(status, badges, publish, DefaultThresholds(), BadgePolicy{SupportThreshold: 20}, nil)

	require.NoError(t, effects.OnTransition(context.Background(), transitionFixture()))

	require.Equal(t, []domain.EscalationTier{domain.TierState}, status.tiers)
	assert.Equal(t, 1, badges.granted["creator|"+domain.BadgeVoiceHero])
	require.Len(t, publish.events, 1)
	assert.Equal(t, EventTypeEscalation, publish.events[0].Type)
	assert.Equal(t, "issue-1", publish.events[0].IssueID)
	assert.Equal(t, domain.TierState, publish.events[0].Tier)
}

func TestOnTransitionBadgeRequiresThreshold(t *testing.T) {
	status := &statusRecorder{}
	badges := newBadgeRecorder()
	publish := &publishRecorder{}
	effects := NewSideEffects(status, badges, publish, DefaultThresholds(), BadgePolicy{SupportThreshold: 20}, nil)

	tr := transitionFixture()
	tr.Tier = domain.TierLocal
	tr.SupportPercentage = 10.5
	require.NoError(t, effects.OnTransition(context.Background(), tr))

	assert.Empty(t, badges.granted)
	assert.Len(t, status.tiers, 1)
}

func TestOnTransitionBadgeAndPublishFailuresAreIsolated(t *testing.T) {
	status := &statusRecorder{}
	badges := newBadgeRecorder()
	badges.failing = true
	publish := &publishRecorder{failing: true}
	effects := NewSideEffects(status, badges, publish, DefaultThresholds(), BadgePolicy{SupportThreshold: 20}, nil)

	// the audit-trail append succeeded, so the dispatch as a whole succeeds
	require.NoError(t, effects.OnTransition(context.Background(), transitionFixture()))
	assert.Equal(t, []domain.EscalationTier{domain.TierState}, status.tiers)
}

func TestOnTransitionStatusFailureStillRunsRemainingEffects(t *testing.T) {
	status := &statusRecorder{failing: true}
	badges := newBadgeRecorder()
	publish := &publishRecorder{}
	effects := NewSideEffects(status, badges, publish, DefaultThresholds(), BadgePolicy{SupportThreshold: 20}, nil)

	err := effects.OnTransition(context.Background(), transitionFixture())
	require.Error(t, err)

	// badge and publish still ran despite the append failure
	assert.Equal(t, 1, badges.granted["creator|"+domain.BadgeVoiceHero])
	assert.Len(t, publish.events, 1)
}

func TestOnTransitionMessagesNameConfiguredThresholds(t *testing.T) {
	thresholds := Thresholds{Local: 5, State: 15, National: 40}
	effects := NewSideEffects(&statusRecorder{}, newBadgeRecorder(), &publishRecorder{}, thresholds, BadgePolicy{SupportThreshold: 20}, nil)

	assert.Contains(t, effects.messages[domain.TierLocal], "5%+")
	assert.Contains(t, effects.messages[domain.TierState], "15%+")
	assert.Contains(t, effects.messages[domain.TierNational], "40%+")
}
