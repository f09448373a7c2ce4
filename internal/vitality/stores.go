// Package vitality implements the issue vitality and escalation engine: it
// folds per-user ratings into a single comparable score per issue, tracks
// community-support percentage, and drives a monotonic escalation state
// machine with idempotent side effects.
package vitality

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/civicpulse/internal/domain"
)

// ErrInvariant marks input that violates an engine invariant, such as a
// rating outside 1..5 or a non-positive ward population.
var ErrInvariant = errors.New("vitality: invariant violation")

// ErrEscalation wraps failures of the escalation evaluation that follows a
// successful aggregate write. The aggregate write is not rolled back; callers
// inspect for this error to decide whether the failure is user-visible.
var ErrEscalation = errors.New("vitality: escalation evaluation failed")

// IssueMeta is the immutable slice of issue state the engine reads.
type IssueMeta struct {
	CreatedAt  time.Time
	CreatedBy  string
	WardNumber string
}

// Aggregate is the recomputed summary written back to an issue. All three
// fields change together in one atomic update.
type Aggregate struct {
	VoteCount         int
	VitalityScore     float64
	SupportPercentage float64
}

// VoteLedger is the durable store of one rating per (user, issue) pair. The
// engine treats it as read-only input; the one-vote-per-user invariant is
// enforced by the ledger itself.
type VoteLedger interface {
	ListRatings(ctx context.Context, issueID string) ([]domain.Vote, error)
}

// IssueStore persists the issue aggregate and its escalation tier.
type IssueStore interface {
	GetIssueMeta(ctx context.Context, issueID string) (IssueMeta, error)
	WriteAggregate(ctx context.Context, issueID string, agg Aggregate) error
	GetEscalationTier(ctx context.Context, issueID string) (domain.EscalationTier, error)
	SetEscalationTier(ctx context.Context, issueID string, tier domain.EscalationTier) error
}

// StatusHistoryStore appends escalation records to the issue's audit trail.
type StatusHistoryStore interface {
	AppendStatusUpdate(ctx context.Context, issueID string, tier domain.EscalationTier, message string) error
}

// BadgeStore grants badges. GrantBadgeIfAbsent is an atomic check-and-insert:
// granting a badge the user already holds is a no-op, not an error.
type BadgeStore interface {
	GrantBadgeIfAbsent(ctx context.Context, userID, badgeType, name, description string) error
}

// Event is published on a fired tier transition.
type Event struct {
	Type    string                `json:"type"`
	IssueID string                `json:"issue_id"`
	Tier    domain.EscalationTier `json:"tier"`
}

// EventTypeEscalation is the sole event type the engine emits.
const EventTypeEscalation = "escalation"

// Publisher delivers events to connected observers. Fire-and-forget; the
// engine never blocks on delivery and never retries.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
