package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmaster/backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, points)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`, u.ID, u.Username, u.Points).Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, points, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.Points, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, username, points, created_at, updated_at
		FROM users ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Points, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &u)
	}
	return list, rows.Err()
}

// GetPoints reads the current balance outside any transaction. Callers must
// treat the value as at most one store round trip stale.
func (r *UserRepo) GetPoints(ctx context.Context, id uuid.UUID) (int, error) {
	var points int
	err := r.pool.QueryRow(ctx, `SELECT points FROM users WHERE id = $1`, id).Scan(&points)
	return points, err
}

// DeductPoints atomically deducts amount if points >= amount. The guard is
// in the statement itself, never a read-then-write: concurrent debits can
// not both observe a stale balance. Returns pgx.ErrNoRows when the balance
// is insufficient.
func (r *UserRepo) DeductPoints(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (newBalance int, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE users SET points = points - $1, updated_at = now()
		WHERE id = $2 AND points >= $1
		RETURNING points
	`, amount, id).Scan(&newBalance)
	return newBalance, err
}

// AddPoints adds amount and returns the new balance.
func (r *UserRepo) AddPoints(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (newBalance int, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE users SET points = points + $1, updated_at = now()
		WHERE id = $2
		RETURNING points
	`, amount, id).Scan(&newBalance)
	return newBalance, err
}
