package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/civicpulse/internal/vitality"
)

// PublisherAdapter bridges engine escalation events onto the dispatcher so
// subscribers see them alongside the rest of the domain events.
type PublisherAdapter struct {
	dispatcher Dispatcher
}

// NewPublisherAdapter wraps a dispatcher.
func NewPublisherAdapter(dispatcher Dispatcher) *PublisherAdapter {
	return &PublisherAdapter{dispatcher: dispatcher}
}

// Publish converts and republishes an engine event.
func (p *PublisherAdapter) Publish(ctx context.Context, event vitality.Event) error {
	return p.dispatcher.Publish(ctx, Event{
		ID:        uuid.NewString(),
		Type:      EventIssueEscalated,
		IssueID:   event.IssueID,
		Timestamp: time.Now().UTC(),
		Payload: IssueEscalatedPayload{
			Tier: event.Tier,
		},
	})
}
