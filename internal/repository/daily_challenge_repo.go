package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmaster/backend/internal/models"
)

type DailyChallengeRepo struct {
	pool *pgxpool.Pool
}

func NewDailyChallengeRepo(pool *pgxpool.Pool) *DailyChallengeRepo {
	return &DailyChallengeRepo{pool: pool}
}

func (r *DailyChallengeRepo) CreateTx(ctx context.Context, tx pgx.Tx, c *models.DailyChallenge) error {
	return tx.QueryRow(ctx, `
		INSERT INTO daily_challenges (id, user_id, target_tasks, points_bet, multiplier, start_time, end_time, completed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false)
		RETURNING created_at, updated_at
	`, c.ID, c.UserID, c.TargetTasks, c.PointsBet, c.Multiplier, c.StartTime, c.EndTime).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// GetOpenByUser returns the user's unsettled challenge, or nil. A partial
// unique index on (user_id) WHERE settled_at IS NULL backs the one-open-
// challenge rule at the store level.
func (r *DailyChallengeRepo) GetOpenByUser(ctx context.Context, userID uuid.UUID) (*models.DailyChallenge, error) {
	var c models.DailyChallenge
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, target_tasks, points_bet, multiplier, start_time, end_time, completed, settled_at, created_at, updated_at
		FROM daily_challenges WHERE user_id = $1 AND settled_at IS NULL
	`, userID).Scan(&c.ID, &c.UserID, &c.TargetTasks, &c.PointsBet, &c.Multiplier, &c.StartTime, &c.EndTime, &c.Completed, &c.SettledAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// MarkWon closes the challenge as won. The settled_at guard makes the payout
// transition single-shot: a second settlement attempt affects zero rows.
func (r *DailyChallengeRepo) MarkWon(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE daily_challenges SET completed = true, settled_at = now(), updated_at = now()
		WHERE id = $1 AND settled_at IS NULL
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkForfeited closes an expired challenge without payout. Same guard as
// MarkWon; whichever transition lands first wins and the other is a no-op.
func (r *DailyChallengeRepo) MarkForfeited(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE daily_challenges SET settled_at = now(), updated_at = now()
		WHERE id = $1 AND settled_at IS NULL
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListExpiredOpen returns unsettled challenges whose window has elapsed, for
// the settlement sweep.
func (r *DailyChallengeRepo) ListExpiredOpen(ctx context.Context, now time.Time) ([]*models.DailyChallenge, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, target_tasks, points_bet, multiplier, start_time, end_time, completed, settled_at, created_at, updated_at
		FROM daily_challenges WHERE settled_at IS NULL AND end_time <= $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.DailyChallenge
	for rows.Next() {
		var c models.DailyChallenge
		if err := rows.Scan(&c.ID, &c.UserID, &c.TargetTasks, &c.PointsBet, &c.Multiplier, &c.StartTime, &c.EndTime, &c.Completed, &c.SettledAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}
