package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civicpulse/internal/domain"
)

// CommentRepository stores issue comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByIssue(ctx context.Context, issueID string) ([]domain.Comment, error)
	Delete(ctx context.Context, id string) error
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (issue_id, user_id, content, is_anonymous)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.IssueID,
		comment.UserID,
		comment.Content,
		comment.IsAnonymous,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	const query = `
        SELECT id, issue_id, user_id, content, is_anonymous, created_at
        FROM comments WHERE id=$1`
	var comment domain.Comment
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&comment.ID,
		&comment.IssueID,
		&comment.UserID,
		&comment.Content,
		&comment.IsAnonymous,
		&comment.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByIssue(ctx context.Context, issueID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, issue_id, user_id, content, is_anonymous, created_at
        FROM comments WHERE issue_id=$1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.IssueID,
			&comment.UserID,
			&comment.Content,
			&comment.IsAnonymous,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM comments WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}
