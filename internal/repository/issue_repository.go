package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civicpulse/internal/domain"
	"github.com/spec-kit/civicpulse/internal/vitality"
)

// Issue sort keys accepted by ListWithFilter.
const (
	SortByVitality   = "vitality_score"
	SortByCreatedAt  = "created_at"
	SortByVoteCount  = "vote_count"
	SortBySupportPct = "support_percentage"
)

// IssueFilter captures listing parameters.
type IssueFilter struct {
	Category   *string
	Status     *domain.IssueStatus
	WardNumber *string
	District   *string
	CreatedBy  *string
	SearchTerm *string
	MinSupport *float64
	SortBy     string
	SortAsc    bool
	Limit      int
	Offset     int
}

// IssueRepository encapsulates issue persistence, including the aggregate
// fields owned by the vitality engine.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	UpdateStatus(ctx context.Context, id string, status domain.IssueStatus, resolvedAt *time.Time) error
	Assign(ctx context.Context, id string, officialID *string) error
	AdjustCommentCount(ctx context.Context, id string, delta int) error
	CountByCreator(ctx context.Context, userID string) (total, resolved int, err error)

	// vitality engine collaborator surface
	GetIssueMeta(ctx context.Context, issueID string) (vitality.IssueMeta, error)
	WriteAggregate(ctx context.Context, issueID string, agg vitality.Aggregate) error
	GetEscalationTier(ctx context.Context, issueID string) (domain.EscalationTier, error)
	SetEscalationTier(ctx context.Context, issueID string, tier domain.EscalationTier) error
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, title, description, category, severity, status, location,
        ward_number, district, state, latitude, longitude, media_urls,
        vitality_score, vote_count, comment_count, support_percentage, escalation_tier,
        is_anonymous, created_by, assigned_to, resolved_at, created_at, updated_at`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (title, description, category, severity, location,
            ward_number, district, state, latitude, longitude, media_urls, is_anonymous, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, status, escalation_tier, created_at, updated_at`
	if issue.MediaURLs == nil {
		issue.MediaURLs = []string{}
	}
	return r.pool.QueryRow(ctx, query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Severity,
		issue.Location,
		issue.WardNumber,
		issue.District,
		issue.State,
		issue.Latitude,
		issue.Longitude,
		issue.MediaURLs,
		issue.IsAnonymous,
		issue.CreatedBy,
	).Scan(&issue.ID, &issue.Status, &issue.EscalationTier, &issue.CreatedAt, &issue.UpdatedAt)
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanIssueRow(row)
}

func (r *issueRepository) ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.WardNumber != nil {
		args = append(args, *filter.WardNumber)
		clauses = append(clauses, fmt.Sprintf("ward_number=$%d", len(args)))
	}
	if filter.District != nil {
		args = append(args, *filter.District)
		clauses = append(clauses, fmt.Sprintf("district=$%d", len(args)))
	}
	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.MinSupport != nil {
		args = append(args, *filter.MinSupport)
		clauses = append(clauses, fmt.Sprintf("support_percentage >= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	sortBy := filter.SortBy
	switch sortBy {
	case SortByVitality, SortByCreatedAt, SortByVoteCount, SortBySupportPct:
	default:
		sortBy = SortByVitality
	}
	direction := "DESC"
	if filter.SortAsc {
		direction = "ASC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM issues WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		issueColumns, strings.Join(clauses, " AND "), sortBy, direction, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) UpdateStatus(ctx context.Context, id string, status domain.IssueStatus, resolvedAt *time.Time) error {
	const query = `
        UPDATE issues SET status=$1, resolved_at=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, status, resolvedAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) Assign(ctx context.Context, id string, officialID *string) error {
	const query = `UPDATE issues SET assigned_to=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, officialID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) AdjustCommentCount(ctx context.Context, id string, delta int) error {
	const query = `
        UPDATE issues SET comment_count = GREATEST(comment_count + $1, 0), updated_at=NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, delta, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) CountByCreator(ctx context.Context, userID string) (int, int, error) {
	const query = `
        SELECT COUNT(*), COUNT(*) FILTER (WHERE status='resolved')
        FROM issues WHERE created_by=$1`
	var total, resolved int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&total, &resolved); err != nil {
		return 0, 0, err
	}
	return total, resolved, nil
}

func (r *issueRepository) GetIssueMeta(ctx context.Context, issueID string) (vitality.IssueMeta, error) {
	const query = `SELECT created_at, created_by, ward_number FROM issues WHERE id=$1`
	var meta vitality.IssueMeta
	if err := r.pool.QueryRow(ctx, query, issueID).Scan(&meta.CreatedAt, &meta.CreatedBy, &meta.WardNumber); err != nil {
		return vitality.IssueMeta{}, err
	}
	return meta, nil
}

// WriteAggregate persists all recomputed summary fields in a single UPDATE so
// no reader can observe a stale vote count next to a fresh score.
func (r *issueRepository) WriteAggregate(ctx context.Context, issueID string, agg vitality.Aggregate) error {
	const query = `
        UPDATE issues SET vitality_score=$1, vote_count=$2, support_percentage=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query, agg.VitalityScore, agg.VoteCount, agg.SupportPercentage, issueID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) GetEscalationTier(ctx context.Context, issueID string) (domain.EscalationTier, error) {
	const query = `SELECT escalation_tier FROM issues WHERE id=$1`
	var tier domain.EscalationTier
	if err := r.pool.QueryRow(ctx, query, issueID).Scan(&tier); err != nil {
		return "", err
	}
	return tier, nil
}

// SetEscalationTier guards against demotion in SQL: the row only changes when
// the new tier ranks above the stored one.
func (r *issueRepository) SetEscalationTier(ctx context.Context, issueID string, tier domain.EscalationTier) error {
	const query = `
        UPDATE issues SET escalation_tier=$2, updated_at=NOW()
        WHERE id=$1
          AND CASE escalation_tier WHEN 'local' THEN 1 WHEN 'state' THEN 2 WHEN 'national' THEN 3 ELSE 0 END
            < CASE $2::text    WHEN 'local' THEN 1 WHEN 'state' THEN 2 WHEN 'national' THEN 3 ELSE 0 END`
	_, err := r.pool.Exec(ctx, query, issueID, tier)
	return err
}

func scanIssueRow(row pgx.Row) (*domain.Issue, error) {
	var issue domain.Issue
	if err := row.Scan(
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&issue.Category,
		&issue.Severity,
		&issue.Status,
		&issue.Location,
		&issue.WardNumber,
		&issue.District,
		&issue.State,
		&issue.Latitude,
		&issue.Longitude,
		&issue.MediaURLs,
		&issue.VitalityScore,
		&issue.VoteCount,
		&issue.CommentCount,
		&issue.SupportPercentage,
		&issue.EscalationTier,
		&issue.IsAnonymous,
		&issue.CreatedBy,
		&issue.AssignedTo,
		&issue.ResolvedAt,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &issue, nil
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		issue, err := scanIssueRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *issue)
	}
	return result, rows.Err()
}
