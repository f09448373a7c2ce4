package dto

import "time"

// ImpactResponse is the per-citizen contribution summary.
type ImpactResponse struct {
	IssuesReported int             `json:"issues_reported"`
	IssuesResolved int             `json:"issues_resolved"`
	VotesCast      int             `json:"votes_cast"`
	ImpactScore    int             `json:"impact_score"`
	Badges         []BadgeResponse `json:"badges"`
}

// ActivityResponse is one activity feed entry.
type ActivityResponse struct {
	ID           string         `json:"id"`
	ActivityType string         `json:"activity_type"`
	ActivityData map[string]any `json:"activity_data"`
	CreatedAt    time.Time      `json:"created_at"`
}
