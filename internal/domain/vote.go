package domain

import "time"

// Rating bounds for a vote.
const (
	MinRating = 1
	MaxRating = 5
)

// Vote is one citizen's rating of an issue. At most one vote exists per
// (user, issue) pair; a repeat vote replaces the rating.
type Vote struct {
	ID        string
	IssueID   string
	UserID    string
	Rating    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidRating reports whether r is inside the accepted 1..5 range.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
