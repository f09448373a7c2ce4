package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civicpulse/internal/domain"
)

// OfficialRepository defines persistence access for government officials.
type OfficialRepository interface {
	Create(ctx context.Context, official *domain.Official) error
	Update(ctx context.Context, official *domain.Official) error
	GetByID(ctx context.Context, id string) (*domain.Official, error)
	GetByEmail(ctx context.Context, email string) (*domain.Official, error)
}

type officialRepository struct {
	pool *pgxpool.Pool
}

// NewOfficialRepository returns a Postgres-backed implementation.
func NewOfficialRepository(pool *pgxpool.Pool) OfficialRepository {
	return &officialRepository{pool: pool}
}

const officialColumns = `id, name, email, password_hash, role, ward_number, district, state, active, created_at, updated_at`

func (r *officialRepository) Create(ctx context.Context, official *domain.Official) error {
	const query = `
        INSERT INTO officials (name, email, password_hash, role, ward_number, district, state, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		official.Name,
		official.Email,
		official.PasswordHash,
		official.Role,
		official.WardNumber,
		official.District,
		official.State,
		official.Active,
	).Scan(&official.ID, &official.CreatedAt, &official.UpdatedAt)
}

func (r *officialRepository) Update(ctx context.Context, official *domain.Official) error {
	const query = `
        UPDATE officials SET name=$1, email=$2, password_hash=$3, role=$4, ward_number=$5,
            district=$6, state=$7, active=$8, updated_at=NOW()
        WHERE id=$9`

	cmd, err := r.pool.Exec(ctx, query,
		official.Name,
		official.Email,
		official.PasswordHash,
		official.Role,
		official.WardNumber,
		official.District,
		official.State,
		official.Active,
		official.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *officialRepository) GetByID(ctx context.Context, id string) (*domain.Official, error) {
	query := `SELECT ` + officialColumns + ` FROM officials WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *officialRepository) GetByEmail(ctx context.Context, email string) (*domain.Official, error) {
	query := `SELECT ` + officialColumns + ` FROM officials WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *officialRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Official, error) {
	var official domain.Official
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&official.ID,
		&official.Name,
		&official.Email,
		&official.PasswordHash,
		&official.Role,
		&official.WardNumber,
		&official.District,
		&official.State,
		&official.Active,
		&official.CreatedAt,
		&official.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &official, nil
}
