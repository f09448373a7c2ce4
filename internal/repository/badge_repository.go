package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civicpulse/internal/domain"
)

// BadgeRepository manages user badge persistence.
type BadgeRepository interface {
	GrantBadgeIfAbsent(ctx context.Context, userID, badgeType, name, description string) error
	ListByUser(ctx context.Context, userID string) ([]domain.UserBadge, error)
}

type badgeRepository struct {
	pool *pgxpool.Pool
}

// NewBadgeRepository builds repository.
func NewBadgeRepository(pool *pgxpool.Pool) BadgeRepository {
	return &badgeRepository{pool: pool}
}

// GrantBadgeIfAbsent is an atomic check-and-insert against the unique
// (user_id, badge_type) constraint. Granting an already-held badge is a
// no-op, never an error.
func (r *badgeRepository) GrantBadgeIfAbsent(ctx context.Context, userID, badgeType, name, description string) error {
	const query = `
        INSERT INTO user_badges (user_id, badge_type, badge_name, description)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT ON CONSTRAINT badges_one_per_user_type DO NOTHING`
	_, err := r.pool.Exec(ctx, query, userID, badgeType, name, description)
	return err
}

func (r *badgeRepository) ListByUser(ctx context.Context, userID string) ([]domain.UserBadge, error) {
	const query = `
        SELECT id, user_id, badge_type, badge_name, description, earned_at
        FROM user_badges WHERE user_id=$1 ORDER BY earned_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.UserBadge
	for rows.Next() {
		var badge domain.UserBadge
		if err := rows.Scan(
			&badge.ID,
			&badge.UserID,
			&badge.BadgeType,
			&badge.BadgeName,
			&badge.Description,
			&badge.EarnedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, badge)
	}
	return result, rows.Err()
}
