package vitality

import (
	"fmt"
	"time"

	"github.com/spec-kit/civicpulse/internal/domain"
)

const (
	// engagement contributes 2 points per vote, saturating at 50 once 25
	// votes are reached.
	engagementPerVote = 2
	engagementCap     = 50

	// recency bonus decays linearly over the first week and floors at 1.
	recencyWindowDays = 7
	recencyFloor      = 1

	ratingWeight = 20
)

// Score is the output of one calculator invocation.
type Score struct {
	VoteCount         int
	VitalityScore     float64
	SupportPercentage float64
}

// ComputeScore maps a rating set and issue age to a vitality score and a
// support percentage. Pure: the same inputs always produce the same output,
// and now is read exactly once by the caller. The vitality score is not
// clamped here; presentation layers normalize. The support percentage is
// likewise unclamped and will sit below 1% for most real wards.
func ComputeScore(ratings []domain.Vote, issueCreatedAt, now time.Time, wardPopulation int) (Score, error) {
	if wardPopulation <= 0 {
		return Score{}, fmt.Errorf("%w: ward population %d", ErrInvariant, wardPopulation)
	}
	if len(ratings) == 0 {
		return Score{}, nil
	}

	sum := 0
	for _, v := range ratings {
		if !domain.ValidRating(v.Rating) {
			return Score{}, fmt.Errorf("%w: rating %d outside %d..%d", ErrInvariant, v.Rating, domain.MinRating, domain.MaxRating)
		}
		sum += v.Rating
	}
	avgRating := float64(sum) / float64(len(ratings))

	engagement := len(ratings) * engagementPerVote
	if engagement > engagementCap {
		engagement = engagementCap
	}

	ageDays := int(now.Sub(issueCreatedAt).Hours() / 24)
	if ageDays < 0 {
		ageDays = 0
	}
	timeFactor := recencyWindowDays - ageDays
	if timeFactor < recencyFloor {
		timeFactor = recencyFloor
	}

	return Score{
		VoteCount:         len(ratings),
		VitalityScore:     avgRating*ratingWeight + float64(engagement) + float64(timeFactor),
		SupportPercentage: float64(len(ratings)) / float64(wardPopulation) * 100,
	}, nil
}

// Aggregate converts the score into the persisted aggregate form.
func (s Score) Aggregate() Aggregate {
	return Aggregate{
		VoteCount:         s.VoteCount,
		VitalityScore:     s.VitalityScore,
		SupportPercentage: s.SupportPercentage,
	}
}
