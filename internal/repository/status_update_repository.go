package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civicpulse/internal/domain"
)

// StatusUpdateRepository stores the append-only issue audit trail.
type StatusUpdateRepository interface {
	Create(ctx context.Context, update *domain.StatusUpdate) error
	ListByIssue(ctx context.Context, issueID string) ([]domain.StatusUpdate, error)
	AppendStatusUpdate(ctx context.Context, issueID string, tier domain.EscalationTier, message string) error
}

type statusUpdateRepository struct {
	pool *pgxpool.Pool
}

// NewStatusUpdateRepository builds repository.
func NewStatusUpdateRepository(pool *pgxpool.Pool) StatusUpdateRepository {
	return &statusUpdateRepository{pool: pool}
}

func (r *statusUpdateRepository) Create(ctx context.Context, update *domain.StatusUpdate) error {
	const query = `
        INSERT INTO status_updates (issue_id, user_id, status, message)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		update.IssueID,
		update.UserID,
		update.Status,
		update.Message,
	).Scan(&update.ID, &update.CreatedAt)
}

func (r *statusUpdateRepository) ListByIssue(ctx context.Context, issueID string) ([]domain.StatusUpdate, error) {
	const query = `
        SELECT id, issue_id, user_id, status, message, created_at
        FROM status_updates WHERE issue_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusUpdate
	for rows.Next() {
		var update domain.StatusUpdate
		if err := rows.Scan(
			&update.ID,
			&update.IssueID,
			&update.UserID,
			&update.Status,
			&update.Message,
			&update.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, update)
	}
	return result, rows.Err()
}

// AppendStatusUpdate writes an engine escalation record. Engine records carry
// no author.
func (r *statusUpdateRepository) AppendStatusUpdate(ctx context.Context, issueID string, tier domain.EscalationTier, message string) error {
	update := &domain.StatusUpdate{
		IssueID: issueID,
		Status:  domain.EscalationStatus(tier),
		Message: message,
	}
	return r.Create(ctx, update)
}
