package domain

import "time"

// IssueStatus enumerates lifecycle states for reported issues.
type IssueStatus string

const (
	IssueStatusUnderReview IssueStatus = "under_review"
	IssueStatusInProgress  IssueStatus = "in_progress"
	IssueStatusResolved    IssueStatus = "resolved"
	IssueStatusClosed      IssueStatus = "closed"
)

// IssueSeverity enumerates reporter-declared urgency.
type IssueSeverity string

const (
	SeverityLow      IssueSeverity = "low"
	SeverityMedium   IssueSeverity = "medium"
	SeverityHigh     IssueSeverity = "high"
	SeverityCritical IssueSeverity = "critical"
)

// EscalationTier is the administrative attention level an issue has earned.
// It only ever moves upward over an issue's lifetime.
type EscalationTier string

const (
	TierNone     EscalationTier = "none"
	TierLocal    EscalationTier = "local"
	TierState    EscalationTier = "state"
	TierNational EscalationTier = "national"
)

// Rank returns the position of the tier in the total order
// none < local < state < national. Unknown tiers rank lowest.
func (t EscalationTier) Rank() int {
	switch t {
	case TierLocal:
		return 1
	case TierState:
		return 2
	case TierNational:
		return 3
	default:
		return 0
	}
}

// Above reports whether t ranks strictly higher than other.
func (t EscalationTier) Above(other EscalationTier) bool {
	return t.Rank() > other.Rank()
}

// Issue is the aggregate for citizen grievances. The score, vote count,
// support percentage and escalation tier fields are owned by the vitality
// engine; everything else is plain CRUD state.
type Issue struct {
	ID                string
	Title             string
	Description       string
	Category          string
	Severity          IssueSeverity
	Status            IssueStatus
	Location          string
	WardNumber        string
	District          string
	State             string
	Latitude          *float64
	Longitude         *float64
	MediaURLs         []string
	VitalityScore     float64
	VoteCount         int
	CommentCount      int
	SupportPercentage float64
	EscalationTier    EscalationTier
	IsAnonymous       bool
	CreatedBy         string
	AssignedTo        *string
	ResolvedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
