package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/civicpulse/internal/config"
	"github.com/spec-kit/civicpulse/internal/domain"
	"github.com/spec-kit/civicpulse/internal/events"
	"github.com/spec-kit/civicpulse/internal/persistence"
	"github.com/spec-kit/civicpulse/internal/repository"
)

const (
	hotIssuesCacheKey = "civicpulse:hot_issues"
	hotIssuesCacheTTL = time.Minute
)

// IssueService coordinates issue reporting workflows.
type IssueService struct {
	issues     repository.IssueRepository
	comments   repository.CommentRepository
	statuses   repository.StatusUpdateRepository
	activity   repository.ActivityRepository
	dispatcher events.Dispatcher
	cache      *persistence.Redis
	vitality   config.VitalityConfig
	logger     *zap.Logger
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	IssueRepo        repository.IssueRepository
	CommentRepo      repository.CommentRepository
	StatusUpdateRepo repository.StatusUpdateRepository
	ActivityRepo     repository.ActivityRepository
	Dispatcher       events.Dispatcher
	Cache            *persistence.Redis
	Vitality         config.VitalityConfig
	Logger           *zap.Logger
}

// IssueCreateInput describes the issue creation payload.
type IssueCreateInput struct {
	Title       string
	Description string
	Category    string
	Severity    domain.IssueSeverity
	Location    string
	WardNumber  string
	District    string
	State       string
	Latitude    *float64
	Longitude   *float64
	MediaURLs   []string
	IsAnonymous bool
}

// IssueDetails bundles an issue with its discussion and audit trail.
type IssueDetails struct {
	Issue         *domain.Issue
	Comments      []domain.Comment
	StatusUpdates []domain.StatusUpdate
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueService{
		issues:     deps.IssueRepo,
		comments:   deps.CommentRepo,
		statuses:   deps.StatusUpdateRepo,
		activity:   deps.ActivityRepo,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		vitality:   deps.Vitality,
		logger:     logger,
	}
}

// CreateIssue records a new citizen grievance.
func (s *IssueService) CreateIssue(ctx context.Context, userID string, input IssueCreateInput) (*domain.Issue, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.New("title required")
	}

	issue := &domain.Issue{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Severity:    input.Severity,
		Location:    input.Location,
		WardNumber:  input.WardNumber,
		District:    input.District,
		State:       input.State,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		MediaURLs:   input.MediaURLs,
		IsAnonymous: input.IsAnonymous,
		CreatedBy:   userID,
	}
	if issue.Severity == "" {
		issue.Severity = domain.SeverityMedium
	}

	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, err
	}

	if err := s.activity.Log(ctx, userID, domain.ActivityIssueCreated, map[string]any{
		"issue_id": issue.ID,
		"title":    issue.Title,
	}); err != nil {
		s.logger.Warn("activity log failed", zap.String("issue_id", issue.ID), zap.Error(err))
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueCreated,
		IssueID: issue.ID,
		Actor:   userActor(userID),
		Payload: events.IssueCreatedPayload{
			Category:   issue.Category,
			WardNumber: issue.WardNumber,
			Title:      issue.Title,
		},
	})
	s.invalidateHotIssues(ctx)
	return issue, nil
}

// ListIssues returns issues matching the public listing filter.
func (s *IssueService) ListIssues(ctx context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	return s.issues.ListWithFilter(ctx, filter)
}

// ListUserIssues returns issues reported by the given citizen.
func (s *IssueService) ListUserIssues(ctx context.Context, userID string, limit, offset int) ([]domain.Issue, error) {
	return s.issues.ListWithFilter(ctx, repository.IssueFilter{
		CreatedBy: &userID,
		SortBy:    repository.SortByCreatedAt,
		Limit:     limit,
		Offset:    offset,
	})
}

// GetIssueDetails fetches an issue with its comments and status history.
func (s *IssueService) GetIssueDetails(ctx context.Context, issueID string) (*IssueDetails, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	updates, err := s.statuses.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	return &IssueDetails{Issue: issue, Comments: comments, StatusUpdates: updates}, nil
}

// ListHotIssues returns issues whose support has crossed the hot threshold,
// strongest support first. Results are cached briefly; the cache is dropped
// whenever an issue is created or changes status.
func (s *IssueService) ListHotIssues(ctx context.Context, limit int) ([]domain.Issue, error) {
	if cached := s.readHotIssuesCache(ctx); cached != nil {
		if limit > 0 && len(cached) > limit {
			cached = cached[:limit]
		}
		return cached, nil
	}

	minSupport := s.vitality.HotIssueThreshold
	issues, err := s.issues.ListWithFilter(ctx, repository.IssueFilter{
		MinSupport: &minSupport,
		SortBy:     repository.SortBySupportPct,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	s.writeHotIssuesCache(ctx, issues)
	return issues, nil
}

// ListPriorityIssues returns the unresolved issues with the highest vitality
// inside the official's jurisdiction.
func (s *IssueService) ListPriorityIssues(ctx context.Context, official *domain.Official, limit int) ([]domain.Issue, error) {
	underReview := domain.IssueStatusUnderReview
	filter := repository.IssueFilter{
		Status: &underReview,
		SortBy: repository.SortByVitality,
		Limit:  limit,
	}
	s.applyOfficialScope(&filter, official)
	return s.issues.ListWithFilter(ctx, filter)
}

// UpdateStatus changes issue status on behalf of an official and records the
// change in the status history.
func (s *IssueService) UpdateStatus(ctx context.Context, official *domain.Official, issueID string, newStatus domain.IssueStatus, message string) (*domain.Issue, error) {
	if official == nil {
		return nil, errors.New("official required")
	}
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}

	var resolvedAt *time.Time
	if newStatus == domain.IssueStatusResolved {
		now := time.Now()
		resolvedAt = &now
	}
	oldStatus := issue.Status
	if err := s.issues.UpdateStatus(ctx, issueID, newStatus, resolvedAt); err != nil {
		return nil, err
	}
	issue.Status = newStatus
	issue.ResolvedAt = resolvedAt

	update := &domain.StatusUpdate{
		IssueID: issueID,
		UserID:  &official.ID,
		Status:  string(newStatus),
		Message: message,
	}
	if err := s.statuses.Create(ctx, update); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventStatusChanged,
		IssueID: issueID,
		Actor:   officialActor(official.ID),
		Payload: events.StatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   message,
		},
	})
	s.invalidateHotIssues(ctx)
	return issue, nil
}

// AssignIssue attaches an issue to an official, or detaches when nil.
func (s *IssueService) AssignIssue(ctx context.Context, issueID string, officialID *string) error {
	return s.issues.Assign(ctx, issueID, officialID)
}

// ListStatusUpdates returns the issue audit trail, newest first.
func (s *IssueService) ListStatusUpdates(ctx context.Context, issueID string) ([]domain.StatusUpdate, error) {
	return s.statuses.ListByIssue(ctx, issueID)
}

func (s *IssueService) applyOfficialScope(filter *repository.IssueFilter, official *domain.Official) {
	if official == nil {
		return
	}
	switch official.Role {
	case domain.RoleWardOfficer:
		if official.WardNumber != nil {
			filter.WardNumber = official.WardNumber
		}
	case domain.RoleDistrictAdmin:
		if official.District != nil {
			filter.District = official.District
		}
	}
	// state admins see everything
}

func (s *IssueService) readHotIssuesCache(ctx context.Context) []domain.Issue {
	if s.cache == nil || s.cache.Client == nil {
		return nil
	}
	raw, err := s.cache.Client.Get(ctx, hotIssuesCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var issues []domain.Issue
	if err := json.Unmarshal(raw, &issues); err != nil {
		return nil
	}
	return issues
}

func (s *IssueService) writeHotIssuesCache(ctx context.Context, issues []domain.Issue) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(issues)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, hotIssuesCacheKey, raw, hotIssuesCacheTTL).Err(); err != nil {
		s.logger.Debug("hot issue cache write failed", zap.Error(err))
	}
}

func (s *IssueService) invalidateHotIssues(ctx context.Context) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	_ = s.cache.Client.Del(ctx, hotIssuesCacheKey).Err()
}

func (s *IssueService) publishEvent(ctx context.Context, event events.Event) {
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

func userActor(userID string) events.Actor {
	return events.Actor{
		Type:   domain.SubjectTypeUser,
		UserID: &userID,
	}
}

func officialActor(officialID string) events.Actor {
	return events.Actor{
		Type:       domain.SubjectTypeOfficial,
		OfficialID: &officialID,
	}
}
