package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/civicpulse/internal/config"
	"github.com/spec-kit/civicpulse/internal/events"
	"github.com/spec-kit/civicpulse/internal/realtime"
)

// NotificationService forwards domain events to live websocket clients and
// emits out-of-band notifications for the ones citizens care about.
type NotificationService struct {
	dispatcher events.Dispatcher
	hub        *realtime.Hub
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, hub *realtime.Hub, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		hub:        hub,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventIssueCreated, n.handleBroadcast)
	n.dispatcher.Subscribe(events.EventVoteCast, n.handleBroadcast)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleBroadcast)
	n.dispatcher.Subscribe(events.EventStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventIssueEscalated, n.handleIssueEscalated)
}

func (n *NotificationService) handleBroadcast(_ context.Context, event events.Event) error {
	n.broadcast(event)
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("StatusChanged", zap.String("issue_id", event.IssueID), zap.Any("payload", event.Payload))
	n.broadcast(event)
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleIssueEscalated(ctx context.Context, event events.Event) error {
	n.logger.Info("IssueEscalated", zap.String("issue_id", event.IssueID), zap.Any("payload", event.Payload))
	n.broadcast(event)
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) broadcast(event events.Event) {
	if n.hub == nil {
		return
	}
	n.hub.Broadcast(event)
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("issue_id", event.IssueID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("issue_id", event.IssueID),
		zap.String("event_type", string(event.Type)))
}
