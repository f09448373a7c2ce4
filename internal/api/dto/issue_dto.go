package dto

import (
	"time"

	"github.com/spec-kit/civicpulse/internal/domain"
)

// CreateIssueRequest payload for reporting an issue.
type CreateIssueRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Severity    domain.IssueSeverity `json:"severity"`
	Location    string               `json:"location"`
	WardNumber  string               `json:"ward_number"`
	District    string               `json:"district"`
	State       string               `json:"state"`
	Latitude    *float64             `json:"latitude,omitempty"`
	Longitude   *float64             `json:"longitude,omitempty"`
	IsAnonymous bool                 `json:"is_anonymous"`
}

// CastVoteRequest payload for rating an issue.
type CastVoteRequest struct {
	Rating int `json:"rating"`
}

// CreateCommentRequest payload for commenting on an issue.
type CreateCommentRequest struct {
	Content     string `json:"content"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// UpdateStatusRequest payload for official status changes.
type UpdateStatusRequest struct {
	Status  domain.IssueStatus `json:"status"`
	Message string             `json:"message"`
}

// AssignIssueRequest payload for assigning an issue to an official.
type AssignIssueRequest struct {
	OfficialID *string `json:"official_id"`
}

// IssueSummary is the listing view of an issue.
type IssueSummary struct {
	ID                string                `json:"id"`
	Title             string                `json:"title"`
	Category          string                `json:"category"`
	Severity          domain.IssueSeverity  `json:"severity"`
	Status            domain.IssueStatus    `json:"status"`
	Location          string                `json:"location"`
	WardNumber        string                `json:"ward_number"`
	District          string                `json:"district"`
	State             string                `json:"state"`
	VitalityScore     float64               `json:"vitality_score"`
	VoteCount         int                   `json:"vote_count"`
	CommentCount      int                   `json:"comment_count"`
	SupportPercentage float64               `json:"support_percentage"`
	EscalationTier    domain.EscalationTier `json:"escalation_tier"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// IssueDetailResponse is the full issue view.
type IssueDetailResponse struct {
	IssueSummary
	Description   string                 `json:"description"`
	Latitude      *float64               `json:"latitude,omitempty"`
	Longitude     *float64               `json:"longitude,omitempty"`
	MediaURLs     []string               `json:"media_urls"`
	IsAnonymous   bool                   `json:"is_anonymous"`
	CreatedBy     *string                `json:"created_by,omitempty"`
	AssignedTo    *string                `json:"assigned_to,omitempty"`
	ResolvedAt    *time.Time             `json:"resolved_at,omitempty"`
	Comments      []CommentResponse      `json:"comments"`
	StatusUpdates []StatusUpdateResponse `json:"status_updates"`
}

// CommentResponse is one comment in the thread.
type CommentResponse struct {
	ID          string    `json:"id"`
	UserID      *string   `json:"user_id,omitempty"`
	Content     string    `json:"content"`
	IsAnonymous bool      `json:"is_anonymous"`
	CreatedAt   time.Time `json:"created_at"`
}

// StatusUpdateResponse is one audit trail entry.
type StatusUpdateResponse struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id,omitempty"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// VoteResponse reports the stored vote plus the fresh aggregate.
type VoteResponse struct {
	Rating            int     `json:"rating"`
	VoteCount         int     `json:"vote_count"`
	VitalityScore     float64 `json:"vitality_score"`
	SupportPercentage float64 `json:"support_percentage"`
}
