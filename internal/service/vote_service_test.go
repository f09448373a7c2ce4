package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civicpulse/internal/domain"
	"github.com/spec-kit/civicpulse/internal/events"
	"github.com/spec-kit/civicpulse/internal/repository"
	"github.com/spec-kit/civicpulse/internal/vitality"
	apperrors "github.com/spec-kit/civicpulse/pkg/util"
)

type fakeVoteRepo struct {
	votes map[string]*domain.Vote
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{votes: make(map[string]*domain.Vote)}
}

func voteKey(userID, issueID string) string {
	return userID + "/" + issueID
}

func (f *fakeVoteRepo) Upsert(_ context.Context, vote *domain.Vote) error {
	key := voteKey(vote.UserID, vote.IssueID)
	if existing, ok := f.votes[key]; ok {
		existing.Rating = vote.Rating
		*vote = *existing
		return nil
	}
	vote.ID = fmt.Sprintf("vote-%d", len(f.votes)+1)
	stored := *vote
	f.votes[key] = &stored
	return nil
}

func (f *fakeVoteRepo) GetByUserAndIssue(_ context.Context, userID, issueID string) (*domain.Vote, error) {
	vote, ok := f.votes[voteKey(userID, issueID)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *vote
	return &copied, nil
}

func (f *fakeVoteRepo) ListRatings(_ context.Context, issueID string) ([]domain.Vote, error) {
	var result []domain.Vote
	for _, vote := range f.votes {
		if vote.IssueID == issueID {
			result = append(result, *vote)
		}
	}
	return result, nil
}

func (f *fakeVoteRepo) Delete(_ context.Context, userID, issueID string) error {
	key := voteKey(userID, issueID)
	if _, ok := f.votes[key]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.votes, key)
	return nil
}

func (f *fakeVoteRepo) CountByUser(_ context.Context, userID string) (int, error) {
	count := 0
	for _, vote := range f.votes {
		if vote.UserID == userID {
			count++
		}
	}
	return count, nil
}

var _ repository.VoteRepository = (*fakeVoteRepo)(nil)

type fakeActivityRepo struct {
	entries []string
}

func (f *fakeActivityRepo) Log(_ context.Context, _, activityType string, _ map[string]any) error {
	f.entries = append(f.entries, activityType)
	return nil
}

func (f *fakeActivityRepo) ListByUser(_ context.Context, _ string, _ int) ([]domain.UserActivity, error) {
	return nil, nil
}

type fakeRecomputer struct {
	ledger *fakeVoteRepo
	err    error
	calls  int
}

func (f *fakeRecomputer) Recompute(ctx context.Context, issueID string) (vitality.Score, error) {
	f.calls++
	if f.err != nil {
		return vitality.Score{}, f.err
	}
	ratings, _ := f.ledger.ListRatings(ctx, issueID)
	sum := 0
	for _, vote := range ratings {
		sum += vote.Rating
	}
	score := vitality.Score{VoteCount: len(ratings)}
	if len(ratings) > 0 {
		score.VitalityScore = float64(sum) / float64(len(ratings)) * 20
		score.SupportPercentage = float64(len(ratings)) / 10000 * 100
	}
	return score, nil
}

type captureDispatcher struct {
	published []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func newVoteFixture() (*VoteService, *fakeVoteRepo, *fakeRecomputer, *captureDispatcher) {
	votes := newFakeVoteRepo()
	recomputer := &fakeRecomputer{ledger: votes}
	dispatcher := &captureDispatcher{}
	svc := NewVoteService(VoteDependencies{
		VoteRepo:     votes,
		ActivityRepo: &fakeActivityRepo{},
		Updater:      recomputer,
		Dispatcher:   dispatcher,
	})
	return svc, votes, recomputer, dispatcher
}

func TestCastVoteRejectsInvalidRating(t *testing.T) {
	svc, _, recomputer, _ := newVoteFixture()

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.CastVote(context.Background(), "user-1", "issue-1", rating)
		require.Error(t, err)

		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVARIANT_VIOLATION", domainErr.Code)
	}
	assert.Zero(t, recomputer.calls, "invalid ratings must not touch the ledger")
}

func TestCastVoteReturnsFreshAggregate(t *testing.T) {
	svc, _, _, dispatcher := newVoteFixture()

	result, err := svc.CastVote(context.Background(), "user-1", "issue-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Score.VoteCount)
	assert.Equal(t, 5, result.Vote.Rating)

	require.Len(t, dispatcher.published, 1)
	assert.Equal(t, events.EventVoteCast, dispatcher.published[0].Type)
	payload, ok := dispatcher.published[0].Payload.(events.VoteCastPayload)
	require.True(t, ok)
	assert.Equal(t, 1, payload.VoteCount)
}

func TestCastVoteTwiceReplacesRating(t *testing.T) {
	svc, votes, _, _ := newVoteFixture()
	ctx := context.Background()

	first, err := svc.CastVote(ctx, "user-1", "issue-1", 2)
	require.NoError(t, err)

	second, err := svc.CastVote(ctx, "user-1", "issue-1", 5)
	require.NoError(t, err)

	assert.Equal(t, first.Vote.ID, second.Vote.ID, "repeat vote must replace, not duplicate")
	assert.Equal(t, 1, second.Score.VoteCount)

	stored, err := votes.GetByUserAndIssue(ctx, "user-1", "issue-1")
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Rating)
}

func TestCastVoteSurvivesEscalationFailure(t *testing.T) {
	svc, _, recomputer, dispatcher := newVoteFixture()
	recomputer.err = fmt.Errorf("%w: publisher down", vitality.ErrEscalation)

	result, err := svc.CastVote(context.Background(), "user-1", "issue-1", 4)
	require.NoError(t, err, "escalation failures must not fail the vote")
	require.NotNil(t, result)
	assert.Len(t, dispatcher.published, 1)
}

func TestCastVoteFailsOnRecomputeError(t *testing.T) {
	svc, _, recomputer, dispatcher := newVoteFixture()
	recomputer.err = errors.New("aggregate write failed")

	_, err := svc.CastVote(context.Background(), "user-1", "issue-1", 4)
	require.Error(t, err)
	assert.Empty(t, dispatcher.published)
}

func TestGetMyVoteReturnsNilWhenAbsent(t *testing.T) {
	svc, _, _, _ := newVoteFixture()

	vote, err := svc.GetMyVote(context.Background(), "user-1", "issue-1")
	require.NoError(t, err)
	assert.Nil(t, vote)
}

func TestRemoveVoteRecomputes(t *testing.T) {
	svc, _, recomputer, _ := newVoteFixture()
	ctx := context.Background()

	_, err := svc.CastVote(ctx, "user-1", "issue-1", 3)
	require.NoError(t, err)

	score, err := svc.RemoveVote(ctx, "user-1", "issue-1")
	require.NoError(t, err)
	assert.Zero(t, score.VoteCount)
	assert.Equal(t, 2, recomputer.calls)
}
