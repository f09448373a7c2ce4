package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civicpulse/internal/domain"
)

// VoteRepository is the durable vote ledger: one rating per (user, issue).
type VoteRepository interface {
	Upsert(ctx context.Context, vote *domain.Vote) error
	GetByUserAndIssue(ctx context.Context, userID, issueID string) (*domain.Vote, error)
	ListRatings(ctx context.Context, issueID string) ([]domain.Vote, error)
	Delete(ctx context.Context, userID, issueID string) error
	CountByUser(ctx context.Context, userID string) (int, error)
}

type voteRepository struct {
	pool *pgxpool.Pool
}

// NewVoteRepository instantiates repository.
func NewVoteRepository(pool *pgxpool.Pool) VoteRepository {
	return &voteRepository{pool: pool}
}

// Upsert inserts the vote or replaces the rating when the (user, issue) pair
// already voted. The unique constraint makes the replace atomic; there is no
// check-then-insert window.
func (r *voteRepository) Upsert(ctx context.Context, vote *domain.Vote) error {
	const query = `
        INSERT INTO votes (issue_id, user_id, rating)
        VALUES ($1,$2,$3)
        ON CONFLICT ON CONSTRAINT votes_one_per_user_issue
        DO UPDATE SET rating=EXCLUDED.rating, updated_at=NOW()
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		vote.IssueID,
		vote.UserID,
		vote.Rating,
	).Scan(&vote.ID, &vote.CreatedAt, &vote.UpdatedAt)
}

func (r *voteRepository) GetByUserAndIssue(ctx context.Context, userID, issueID string) (*domain.Vote, error) {
	const query = `
        SELECT id, issue_id, user_id, rating, created_at, updated_at
        FROM votes WHERE user_id=$1 AND issue_id=$2`
	var vote domain.Vote
	if err := r.pool.QueryRow(ctx, query, userID, issueID).Scan(
		&vote.ID,
		&vote.IssueID,
		&vote.UserID,
		&vote.Rating,
		&vote.CreatedAt,
		&vote.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *voteRepository) ListRatings(ctx context.Context, issueID string) ([]domain.Vote, error) {
	const query = `
        SELECT id, issue_id, user_id, rating, created_at, updated_at
        FROM votes WHERE issue_id=$1`
	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Vote
	for rows.Next() {
		var vote domain.Vote
		if err := rows.Scan(
			&vote.ID,
			&vote.IssueID,
			&vote.UserID,
			&vote.Rating,
			&vote.CreatedAt,
			&vote.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, vote)
	}
	return result, rows.Err()
}

func (r *voteRepository) Delete(ctx context.Context, userID, issueID string) error {
	const query = `DELETE FROM votes WHERE user_id=$1 AND issue_id=$2`
	cmd, err := r.pool.Exec(ctx, query, userID, issueID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *voteRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM votes WHERE user_id=$1`
	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
