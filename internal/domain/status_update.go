package domain

import "time"

// StatusUpdate is an append-only record of an issue's progress. Escalation
// records are written by the vitality engine with a nil UserID; the rest are
// posted by officials.
type StatusUpdate struct {
	ID        string
	IssueID   string
	UserID    *string
	Status    string
	Message   string
	CreatedAt time.Time
}

// EscalationStatus returns the status string recorded for a tier transition.
func EscalationStatus(tier EscalationTier) string {
	return "escalated_" + string(tier)
}
