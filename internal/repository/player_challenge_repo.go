package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskmaster/backend/internal/models"
)

type PlayerChallengeRepo struct {
	pool *pgxpool.Pool
}

func NewPlayerChallengeRepo(pool *pgxpool.Pool) *PlayerChallengeRepo {
	return &PlayerChallengeRepo{pool: pool}
}

func (r *PlayerChallengeRepo) CreateTx(ctx context.Context, tx pgx.Tx, c *models.PlayerChallenge) error {
	return tx.QueryRow(ctx, `
		INSERT INTO player_challenges (id, challenger_id, challenged_id, points_bet, status, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, c.ID, c.ChallengerID, c.ChallengedID, c.PointsBet, c.Status, c.StartTime, c.EndTime).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *PlayerChallengeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PlayerChallenge, error) {
	var c models.PlayerChallenge
	err := r.pool.QueryRow(ctx, `
		SELECT id, challenger_id, challenged_id, points_bet, status, start_time, end_time, winner_id, created_at, updated_at
		FROM player_challenges WHERE id = $1
	`, id).Scan(&c.ID, &c.ChallengerID, &c.ChallengedID, &c.PointsBet, &c.Status, &c.StartTime, &c.EndTime, &c.WinnerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PlayerChallengeRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.PlayerChallenge, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, challenger_id, challenged_id, points_bet, status, start_time, end_time, winner_id, created_at, updated_at
		FROM player_challenges
		WHERE challenger_id = $1 OR challenged_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.PlayerChallenge
	for rows.Next() {
		var c models.PlayerChallenge
		if err := rows.Scan(&c.ID, &c.ChallengerID, &c.ChallengedID, &c.PointsBet, &c.Status, &c.StartTime, &c.EndTime, &c.WinnerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

// Transition moves the challenge from one status to another in a single
// guarded statement. False means the challenge was not in the expected
// state, which keeps accept, decline and settlement single-shot under
// concurrent requests.
func (r *PlayerChallengeRepo) Transition(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE player_challenges SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetWinner records the settled outcome. Nil winnerID means a tie.
func (r *PlayerChallengeRepo) SetWinner(ctx context.Context, tx pgx.Tx, id uuid.UUID, winnerID *uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE player_challenges SET winner_id = $2, updated_at = now() WHERE id = $1
	`, id, winnerID)
	return err
}

// ListExpiredByStatus returns challenges past their window still in the
// given status, for the settlement sweep.
func (r *PlayerChallengeRepo) ListExpiredByStatus(ctx context.Context, status string, now time.Time) ([]*models.PlayerChallenge, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, challenger_id, challenged_id, points_bet, status, start_time, end_time, winner_id, created_at, updated_at
		FROM player_challenges WHERE status = $1 AND end_time <= $2
	`, status, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.PlayerChallenge
	for rows.Next() {
		var c models.PlayerChallenge
		if err := rows.Scan(&c.ID, &c.ChallengerID, &c.ChallengedID, &c.PointsBet, &c.Status, &c.StartTime, &c.EndTime, &c.WinnerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}
