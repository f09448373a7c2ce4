package vitality

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civicpulse/internal/domain"
)

func votesWithRatings(ratings ...int) []domain.Vote {
	votes := make([]domain.Vote, 0, len(ratings))
	for _, r := range ratings {
		votes = append(votes, domain.Vote{Rating: r})
	}
	return votes
}

func TestComputeScoreEmptyRatings(t *testing.T) {
	now := time.Now()
	score, err := ComputeScore(nil, now.Add(-time.Hour), now, 10000)
	require.NoError(t, err)
	assert.Zero(t, score.VitalityScore)
	assert.Zero(t, score.SupportPercentage)
	assert.Zero(t, score.VoteCount)
}

func TestComputeScoreFreshIssue(t *testing.T) {
	// 5 users rate {5,5,4,5,5} within the first hour of a ward of 10000:
	// avg 4.8, engagement 10, time factor 7.
	now := time.Now()
	score, err := ComputeScore(votesWithRatings(5, 5, 4, 5, 5), now.Add(-time.Hour), now, 10000)
	require.NoError(t, err)

	assert.Equal(t, 5, score.VoteCount)
	assert.InDelta(t, 4.8*20+10+7, score.VitalityScore, 1e-9)
	assert.InDelta(t, 0.05, score.SupportPercentage, 1e-9)
}

func TestComputeScoreEngagementSaturates(t *testing.T) {
	now := time.Now()
	ratings := make([]domain.Vote, 40)
	for i := range ratings {
		ratings[i].Rating = 3
	}
	score, err := ComputeScore(ratings, now.Add(-time.Hour), now, 10000)
	require.NoError(t, err)

	// 3*20 + capped 50 + fresh-issue factor 7
	assert.InDelta(t, 60+50+7, score.VitalityScore, 1e-9)
}

func TestComputeScoreTimeFactorFloorsAtOne(t *testing.T) {
	now := time.Now()
	score, err := ComputeScore(votesWithRatings(4), now.AddDate(0, -2, 0), now, 10000)
	require.NoError(t, err)
	assert.InDelta(t, 4*20+2+1, score.VitalityScore, 1e-9)
}

func TestComputeScoreTimeFactorDecay(t *testing.T) {
	now := time.Now()
	for days, want := range map[int]float64{0: 7, 1: 6, 3: 4, 6: 1, 7: 1, 30: 1} {
		created := now.Add(-time.Duration(days)*24*time.Hour - time.Minute)
		score, err := ComputeScore(votesWithRatings(1), created, now, 10000)
		require.NoError(t, err)
		assert.InDelta(t, 20+2+want, score.VitalityScore, 1e-9, "age %d days", days)
	}
}

func TestComputeScoreBounds(t *testing.T) {
	// For any rating set with ratings in 1..5 the score stays within
	// [timeFactor, 157].
	now := time.Now()
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(60)
		ratings := make([]domain.Vote, n)
		for j := range ratings {
			ratings[j].Rating = 1 + rng.Intn(5)
		}
		ageDays := rng.Intn(30)
		created := now.Add(-time.Duration(ageDays) * 24 * time.Hour)

		score, err := ComputeScore(ratings, created, now, 10000)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score.VitalityScore, 1.0)
		assert.LessOrEqual(t, score.VitalityScore, 157.0)
	}
}

func TestComputeScoreRejectsOutOfRangeRating(t *testing.T) {
	now := time.Now()
	_, err := ComputeScore(votesWithRatings(3, 6), now, now, 10000)
	assert.ErrorIs(t, err, ErrInvariant)

	_, err = ComputeScore(votesWithRatings(0), now, now, 10000)
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestComputeScoreRejectsBadWardPopulation(t *testing.T) {
	now := time.Now()
	_, err := ComputeScore(votesWithRatings(3), now, now, 0)
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestComputeScoreDeterministic(t *testing.T) {
	now := time.Now()
	created := now.Add(-50 * time.Hour)
	ratings := votesWithRatings(2, 4, 5, 1, 3)

	first, err := ComputeScore(ratings, created, now, 8000)
	require.NoError(t, err)
	second, err := ComputeScore(ratings, created, now, 8000)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
