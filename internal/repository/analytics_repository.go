package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civicpulse/internal/domain"
)

// IssueStats summarizes the issue population for dashboards.
type IssueStats struct {
	Total       int
	UnderReview int
	InProgress  int
	Resolved    int
	Closed      int
	Escalated   int
}

// CategoryCount is the number of issues filed under one category.
type CategoryCount struct {
	Category     string
	Count        int
	AvgVitality  float64
	ResolvedRate float64
}

// AnalyticsRepository runs the aggregate queries behind dashboards.
type AnalyticsRepository interface {
	IssueStats(ctx context.Context) (IssueStats, error)
	CategoryCounts(ctx context.Context) ([]CategoryCount, error)
	EscalationCounts(ctx context.Context) (map[domain.EscalationTier]int, error)
}

type analyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository builds repository.
func NewAnalyticsRepository(pool *pgxpool.Pool) AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

func (r *analyticsRepository) IssueStats(ctx context.Context) (IssueStats, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='under_review'),
               COUNT(*) FILTER (WHERE status='in_progress'),
               COUNT(*) FILTER (WHERE status='resolved'),
               COUNT(*) FILTER (WHERE status='closed'),
               COUNT(*) FILTER (WHERE escalation_tier <> 'none')
        FROM issues`
	var stats IssueStats
	if err := r.pool.QueryRow(ctx, query).Scan(
		&stats.Total,
		&stats.UnderReview,
		&stats.InProgress,
		&stats.Resolved,
		&stats.Closed,
		&stats.Escalated,
	); err != nil {
		return IssueStats{}, err
	}
	return stats, nil
}

func (r *analyticsRepository) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	const query = `
        SELECT category,
               COUNT(*),
               COALESCE(AVG(vitality_score), 0),
               COALESCE(COUNT(*) FILTER (WHERE status='resolved')::float / NULLIF(COUNT(*), 0), 0)
        FROM issues GROUP BY category ORDER BY COUNT(*) DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CategoryCount
	for rows.Next() {
		var entry CategoryCount
		if err := rows.Scan(&entry.Category, &entry.Count, &entry.AvgVitality, &entry.ResolvedRate); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *analyticsRepository) EscalationCounts(ctx context.Context) (map[domain.EscalationTier]int, error) {
	const query = `
        SELECT escalation_tier, COUNT(*)
        FROM issues WHERE escalation_tier <> 'none' GROUP BY escalation_tier`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[domain.EscalationTier]int)
	for rows.Next() {
		var tier domain.EscalationTier
		var count int
		if err := rows.Scan(&tier, &count); err != nil {
			return nil, err
		}
		result[tier] = count
	}
	return result, rows.Err()
}
