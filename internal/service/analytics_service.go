package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/civicpulse/internal/domain"
	"github.com/spec-kit/civicpulse/internal/persistence"
	"github.com/spec-kit/civicpulse/internal/repository"
)

const (
	dashboardCacheKey = "civicpulse:dashboard_stats"
	dashboardCacheTTL = 5 * time.Minute
)

// Impact score weights. The score saturates at 100.
const (
	impactPerIssue    = 10
	impactPerVote     = 2
	impactPerResolved = 20
	impactCap         = 100
)

// DashboardStats is the aggregate view served to the public dashboard.
type DashboardStats struct {
	Issues      repository.IssueStats         `json:"issues"`
	Categories  []repository.CategoryCount    `json:"categories"`
	Escalations map[domain.EscalationTier]int `json:"escalations"`
	GeneratedAt time.Time                     `json:"generated_at"`
}

// UserImpact summarizes one citizen's contribution to the portal.
type UserImpact struct {
	IssuesReported int                `json:"issues_reported"`
	IssuesResolved int                `json:"issues_resolved"`
	VotesCast      int                `json:"votes_cast"`
	ImpactScore    int                `json:"impact_score"`
	Badges         []domain.UserBadge `json:"badges"`
}

// AnalyticsService aggregates portal-wide and per-user statistics.
type AnalyticsService struct {
	analytics repository.AnalyticsRepository
	issues    repository.IssueRepository
	votes     repository.VoteRepository
	badges    repository.BadgeRepository
	cache     *persistence.Redis
	logger    *zap.Logger
}

// AnalyticsDependencies bundles collaborators for the analytics service.
type AnalyticsDependencies struct {
	AnalyticsRepo repository.AnalyticsRepository
	IssueRepo     repository.IssueRepository
	VoteRepo      repository.VoteRepository
	BadgeRepo     repository.BadgeRepository
	Cache         *persistence.Redis
	Logger        *zap.Logger
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(deps AnalyticsDependencies) *AnalyticsService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		analytics: deps.AnalyticsRepo,
		issues:    deps.IssueRepo,
		votes:     deps.VoteRepo,
		badges:    deps.BadgeRepo,
		cache:     deps.Cache,
		logger:    logger,
	}
}

// GetDashboardStats returns portal-wide statistics, served from cache when
// fresh enough.
func (s *AnalyticsService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	if cached := s.readDashboardCache(ctx); cached != nil {
		return cached, nil
	}

	issueStats, err := s.analytics.IssueStats(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.analytics.CategoryCounts(ctx)
	if err != nil {
		return nil, err
	}
	escalations, err := s.analytics.EscalationCounts(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		Issues:      issueStats,
		Categories:  categories,
		Escalations: escalations,
		GeneratedAt: time.Now(),
	}
	s.writeDashboardCache(ctx, stats)
	return stats, nil
}

// GetUserImpact computes the citizen's contribution summary.
func (s *AnalyticsService) GetUserImpact(ctx context.Context, userID string) (*UserImpact, error) {
	total, resolved, err := s.issues.CountByCreator(ctx, userID)
	if err != nil {
		return nil, err
	}
	votes, err := s.votes.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, err := s.badges.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserImpact{
		IssuesReported: total,
		IssuesResolved: resolved,
		VotesCast:      votes,
		ImpactScore:    impactScore(total, votes, resolved),
		Badges:         badges,
	}, nil
}

func impactScore(issues, votes, resolved int) int {
	score := issues*impactPerIssue + votes*impactPerVote + resolved*impactPerResolved
	if score > impactCap {
		return impactCap
	}
	return score
}

func (s *AnalyticsService) readDashboardCache(ctx context.Context) *DashboardStats {
	if s.cache == nil || s.cache.Client == nil {
		return nil
	}
	raw, err := s.cache.Client.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var stats DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil
	}
	return &stats
}

func (s *AnalyticsService) writeDashboardCache(ctx context.Context, stats *DashboardStats) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, dashboardCacheKey, raw, dashboardCacheTTL).Err(); err != nil {
		s.logger.Debug("dashboard cache write failed", zap.Error(err))
	}
}
