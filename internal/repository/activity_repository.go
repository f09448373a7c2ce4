package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civicpulse/internal/domain"
)

// ActivityRepository stores the per-user activity feed.
type ActivityRepository interface {
	Log(ctx context.Context, userID, activityType string, data map[string]any) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.UserActivity, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository builds repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Log(ctx context.Context, userID, activityType string, data map[string]any) error {
	const query = `
        INSERT INTO user_activity (user_id, activity_type, activity_data)
        VALUES ($1,$2,$3)`
	_, err := r.pool.Exec(ctx, query, userID, activityType, data)
	return err
}

func (r *activityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.UserActivity, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
        SELECT id, user_id, activity_type, activity_data, created_at
        FROM user_activity WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.UserActivity
	for rows.Next() {
		var activity domain.UserActivity
		if err := rows.Scan(
			&activity.ID,
			&activity.UserID,
			&activity.ActivityType,
			&activity.ActivityData,
			&activity.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, activity)
	}
	return result, rows.Err()
}
