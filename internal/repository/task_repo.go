package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmaster/backend/internal/models"
)

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func (r *TaskRepo) Create(ctx context.Context, t *models.Task) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, owner_id, title, points, completed, completed_at, auto_complete_on_create)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, t.ID, t.OwnerID, t.Title, t.Points, t.Completed, t.CompletedAt, t.AutoCompleteOnCreate).Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var t models.Task
	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, title, points, completed, completed_at, auto_complete_on_create, created_at, updated_at
		FROM tasks WHERE id = $1
	`, id).Scan(&t.ID, &t.OwnerID, &t.Title, &t.Points, &t.Completed, &t.CompletedAt, &t.AutoCompleteOnCreate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, title, points, completed, completed_at, auto_complete_on_create, created_at, updated_at
		FROM tasks WHERE owner_id = $1 ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Points, &t.Completed, &t.CompletedAt, &t.AutoCompleteOnCreate, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

// MarkCompleted flips completed in one guarded statement. Returns false when
// the task was already completed (or not the caller's), so callers can treat
// a repeat as a no-op instead of double-crediting.
func (r *TaskRepo) MarkCompleted(ctx context.Context, tx pgx.Tx, id, ownerID uuid.UUID, at time.Time) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE tasks SET completed = true, completed_at = $3, updated_at = now()
		WHERE id = $1 AND owner_id = $2 AND completed = false
	`, id, ownerID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkUncompleted is the inverse guard: only a completed task transitions,
// and completed_at is cleared with the flag.
func (r *TaskRepo) MarkUncompleted(ctx context.Context, tx pgx.Tx, id, ownerID uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE tasks SET completed = false, completed_at = NULL, updated_at = now()
		WHERE id = $1 AND owner_id = $2 AND completed = true
	`, id, ownerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// FindPendingAutoComplete returns the owner's open onboarding task, if any,
// excluding the task that triggered the lookup.
func (r *TaskRepo) FindPendingAutoComplete(ctx context.Context, ownerID, excludeID uuid.UUID) (*models.Task, error) {
	var t models.Task
	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, title, points, completed, completed_at, auto_complete_on_create, created_at, updated_at
		FROM tasks
		WHERE owner_id = $1 AND id <> $2 AND auto_complete_on_create = true AND completed = false
		ORDER BY created_at LIMIT 1
	`, ownerID, excludeID).Scan(&t.ID, &t.OwnerID, &t.Title, &t.Points, &t.Completed, &t.CompletedAt, &t.AutoCompleteOnCreate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// CountCompletedInWindow counts the owner's tasks completed inside
// [start, end]. Both challenge engines derive progress from this rather than
// trusting a stored counter.
func (r *TaskRepo) CountCompletedInWindow(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM tasks
		WHERE owner_id = $1 AND completed = true AND completed_at >= $2 AND completed_at <= $3
	`, ownerID, start, end).Scan(&n)
	return n, err
}
