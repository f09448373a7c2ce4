package domain

import "time"

// Comment is a citizen remark on an issue.
type Comment struct {
	ID          string
	IssueID     string
	UserID      string
	Content     string
	IsAnonymous bool
	CreatedAt   time.Time
}
