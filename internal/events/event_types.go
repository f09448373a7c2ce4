package events

import (
	"time"

	"github.com/spec-kit/civicpulse/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated   EventType = "issue_created"
	EventVoteCast       EventType = "vote_cast"
	EventCommentAdded   EventType = "comment_added"
	EventStatusChanged  EventType = "status_changed"
	EventIssueEscalated EventType = "issue_escalated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type       domain.SubjectType `json:"type"`
	UserID     *string            `json:"user_id,omitempty"`
	OfficialID *string            `json:"official_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Category   string `json:"category"`
	WardNumber string `json:"ward_number"`
	Title      string `json:"title"`
}

// VoteCastPayload payload.
type VoteCastPayload struct {
	Rating            int     `json:"rating"`
	VoteCount         int     `json:"vote_count"`
	VitalityScore     float64 `json:"vitality_score"`
	SupportPercentage float64 `json:"support_percentage"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	IsAnonymous bool   `json:"is_anonymous"`
	BodyPreview string `json:"body_preview"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
	Comment   string             `json:"comment,omitempty"`
}

// IssueEscalatedPayload payload.
type IssueEscalatedPayload struct {
	Tier              domain.EscalationTier `json:"tier"`
	SupportPercentage float64               `json:"support_percentage"`
	Message           string                `json:"message"`
}
