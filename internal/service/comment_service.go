package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/civicpulse/internal/domain"
	"github.com/spec-kit/civicpulse/internal/events"
	"github.com/spec-kit/civicpulse/internal/repository"
)

// CommentService coordinates the discussion thread under an issue.
type CommentService struct {
	comments   repository.CommentRepository
	issues     repository.IssueRepository
	activity   repository.ActivityRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	CommentRepo  repository.CommentRepository
	IssueRepo    repository.IssueRepository
	ActivityRepo repository.ActivityRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{
		comments:   deps.CommentRepo,
		issues:     deps.IssueRepo,
		activity:   deps.ActivityRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// AddComment appends a comment and bumps the issue's comment counter.
func (s *CommentService) AddComment(ctx context.Context, userID, issueID, content string, isAnonymous bool) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("comment content required")
	}
	if _, err := s.issues.GetByID(ctx, issueID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		IssueID:     issueID,
		UserID:      userID,
		Content:     content,
		IsAnonymous: isAnonymous,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	if err := s.issues.AdjustCommentCount(ctx, issueID, 1); err != nil {
		s.logger.Warn("comment count bump failed", zap.String("issue_id", issueID), zap.Error(err))
	}

	if err := s.activity.Log(ctx, userID, domain.ActivityCommentAdded, map[string]any{
		"issue_id":   issueID,
		"comment_id": comment.ID,
	}); err != nil {
		s.logger.Warn("activity log failed", zap.String("issue_id", issueID), zap.Error(err))
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventCommentAdded,
		IssueID: issueID,
		Actor:   userActor(userID),
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			IsAnonymous: comment.IsAnonymous,
			BodyPreview: commentPreview(comment.Content, 120),
		},
	})
	return comment, nil
}

// ListComments returns the comments for an issue, newest first.
func (s *CommentService) ListComments(ctx context.Context, issueID string) ([]domain.Comment, error) {
	return s.comments.ListByIssue(ctx, issueID)
}

// DeleteComment removes the caller's own comment and decrements the counter.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID string) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return errors.New("access denied")
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return err
	}
	if err := s.issues.AdjustCommentCount(ctx, comment.IssueID, -1); err != nil {
		s.logger.Warn("comment count decrement failed", zap.String("issue_id", comment.IssueID), zap.Error(err))
	}
	return nil
}

func (s *CommentService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func commentPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
