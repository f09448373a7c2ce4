package domain

import "time"

// Activity types recorded in the per-user feed.
const (
	ActivityIssueCreated = "issue_created"
	ActivityVoteCast     = "vote_cast"
	ActivityCommentAdded = "comment_added"
)

// UserActivity is one entry in a citizen's activity feed.
type UserActivity struct {
	ID           string
	UserID       string
	ActivityType string
	ActivityData map[string]any
	CreatedAt    time.Time
}
