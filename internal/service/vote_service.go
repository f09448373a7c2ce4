package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/civicpulse/internal/domain"
	"github.com/spec-kit/civicpulse/internal/events"
	"github.com/spec-kit/civicpulse/internal/repository"
	"github.com/spec-kit/civicpulse/internal/vitality"
	apperrors "github.com/spec-kit/civicpulse/pkg/util"
)

// Recomputer triggers an aggregate recompute after a vote change.
type Recomputer interface {
	Recompute(ctx context.Context, issueID string) (vitality.Score, error)
}

// VoteService coordinates vote casting and the aggregate refresh that
// follows. Responses always carry the freshly recomputed aggregate.
type VoteService struct {
	votes      repository.VoteRepository
	activity   repository.ActivityRepository
	updater    Recomputer
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// VoteDependencies bundles collaborators for the vote service.
type VoteDependencies struct {
	VoteRepo     repository.VoteRepository
	ActivityRepo repository.ActivityRepository
	Updater      Recomputer
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// VoteResult is the outcome of a cast vote: the stored vote plus the fresh
// issue aggregate.
type VoteResult struct {
	Vote  *domain.Vote
	Score vitality.Score
}

// NewVoteService constructs the service.
func NewVoteService(deps VoteDependencies) *VoteService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoteService{
		votes:      deps.VoteRepo,
		activity:   deps.ActivityRepo,
		updater:    deps.Updater,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CastVote records the citizen's rating and synchronously recomputes the
// issue aggregate. A repeat vote replaces the earlier rating. Escalation
// evaluation failures are logged but do not fail the vote: the rating and
// aggregate are already durable at that point.
func (s *VoteService) CastVote(ctx context.Context, userID, issueID string, rating int) (*VoteResult, error) {
	if !domain.ValidRating(rating) {
		return nil, apperrors.NewInvariantViolation("rating must be between 1 and 5", map[string]any{
			"rating": rating,
		})
	}

	vote := &domain.Vote{IssueID: issueID, UserID: userID, Rating: rating}
	if err := s.votes.Upsert(ctx, vote); err != nil {
		return nil, err
	}

	score, err := s.updater.Recompute(ctx, issueID)
	if err != nil {
		if !errors.Is(err, vitality.ErrEscalation) {
			return nil, err
		}
		s.logger.Warn("vote recorded but escalation evaluation failed",
			zap.String("issue_id", issueID),
			zap.Error(err))
	}

	if err := s.activity.Log(ctx, userID, domain.ActivityVoteCast, map[string]any{
		"issue_id": issueID,
		"rating":   rating,
	}); err != nil {
		s.logger.Warn("activity log failed", zap.String("issue_id", issueID), zap.Error(err))
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventVoteCast,
		IssueID: issueID,
		Actor:   userActor(userID),
		Payload: events.VoteCastPayload{
			Rating:            rating,
			VoteCount:         score.VoteCount,
			VitalityScore:     score.VitalityScore,
			SupportPercentage: score.SupportPercentage,
		},
	})

	return &VoteResult{Vote: vote, Score: score}, nil
}

// GetMyVote returns the caller's vote on an issue, or nil when absent.
func (s *VoteService) GetMyVote(ctx context.Context, userID, issueID string) (*domain.Vote, error) {
	vote, err := s.votes.GetByUserAndIssue(ctx, userID, issueID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return vote, nil
}

// RemoveVote deletes the caller's vote and recomputes the aggregate.
func (s *VoteService) RemoveVote(ctx context.Context, userID, issueID string) (vitality.Score, error) {
	if err := s.votes.Delete(ctx, userID, issueID); err != nil {
		return vitality.Score{}, err
	}
	score, err := s.updater.Recompute(ctx, issueID)
	if err != nil && !errors.Is(err, vitality.ErrEscalation) {
		return vitality.Score{}, err
	}
	return score, nil
}

func (s *VoteService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
