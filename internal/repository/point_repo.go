package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmaster/backend/internal/models"
)

type PointRepo struct {
	pool *pgxpool.Pool
}

func NewPointRepo(pool *pgxpool.Pool) *PointRepo {
	return &PointRepo{pool: pool}
}

// CreateTx inserts a journal entry inside the given transaction, so the
// entry commits or rolls back together with the balance change it records.
func (r *PointRepo) CreateTx(ctx context.Context, tx pgx.Tx, e *models.PointEntry) error {
	return tx.QueryRow(ctx, `
		INSERT INTO point_entries (id, user_id, ref_id, entry_type, amount, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, e.ID, e.UserID, e.RefID, e.EntryType, e.Amount, e.BalanceAfter).Scan(&e.CreatedAt)
}

func (r *PointRepo) ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.PointEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, ref_id, entry_type, amount, balance_after, created_at
		FROM point_entries WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.PointEntry
	for rows.Next() {
		var e models.PointEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.RefID, &e.EntryType, &e.Amount, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
