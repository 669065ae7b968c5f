package daily

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskmaster/backend/internal/models"
)

var (
	// ErrInvalidStake is returned when the bet is below the minimum or
	// above the 10%-of-balance cap.
	ErrInvalidStake = errors.New("stake outside allowed bounds")
	// ErrInvalidTarget is returned when targetTasks is outside [1, 10].
	ErrInvalidTarget = errors.New("target tasks must be between 1 and 10")
	// ErrChallengeActive is returned when the user already has an open
	// challenge. Creating a second one is rejected, never overwritten.
	ErrChallengeActive = errors.New("a daily challenge is already active")
	// ErrNoChallenge is returned when the user has no open challenge.
	ErrNoChallenge = errors.New("no active daily challenge")
)

// Store is the challenge repository subset the engine needs. Every closing
// transition is guarded on settled_at so win and forfeit are single-shot.
type Store interface {
	CreateTx(ctx context.Context, tx pgx.Tx, c *models.DailyChallenge) error
	GetOpenByUser(ctx context.Context, userID uuid.UUID) (*models.DailyChallenge, error)
	MarkWon(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	MarkForfeited(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	ListExpiredOpen(ctx context.Context, now time.Time) ([]*models.DailyChallenge, error)
}

// TaskCounter derives challenge progress from task completion timestamps.
type TaskCounter interface {
	CountCompletedInWindow(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (int, error)
}

// Ledger stakes and pays out through the points ledger.
type Ledger interface {
	Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, entryType string, refID *uuid.UUID) (int, error)
	Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, entryType string, refID *uuid.UUID) (int, error)
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
}

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Status is a challenge plus its derived progress, the shape the UI reads.
type Status struct {
	Challenge      *models.DailyChallenge `json:"challenge"`
	TasksCompleted int                    `json:"tasks_completed"`
}

// Service runs single-user 24h wagers: stake up front, payout at
// bet*multiplier if the target count of task completions lands inside the
// window, stake forfeited otherwise.
type Service struct {
	Pool       TxBeginner
	Challenges Store
	Tasks      TaskCounter
	Ledger     Ledger
	Log        *slog.Logger

	// now is swapped in tests.
	now func() time.Time
}

func NewService(pool TxBeginner, challenges Store, tasks TaskCounter, ledger Ledger, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{Pool: pool, Challenges: challenges, Tasks: tasks, Ledger: ledger, Log: log, now: func() time.Time { return time.Now().UTC() }}
}

// MaxStake is the largest bet the user may place: 10% of the current
// balance, floored, but never below the minimum bet.
func MaxStake(balance int) int {
	limit := balance / 10
	if limit < models.DailyChallengeMinBet {
		return models.DailyChallengeMinBet
	}
	return limit
}

// Create opens a new challenge, debiting the stake atomically. The
// multiplier is fixed at creation regardless of later task changes.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, targetTasks, pointsBet int) (*models.DailyChallenge, error) {
	if targetTasks < models.DailyChallengeMinTargets || targetTasks > models.DailyChallengeMaxTargets {
		return nil, ErrInvalidTarget
	}
	balance, err := s.Ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pointsBet < models.DailyChallengeMinBet || pointsBet > MaxStake(balance) {
		return nil, ErrInvalidStake
	}
	if open, err := s.Challenges.GetOpenByUser(ctx, userID); err != nil {
		return nil, err
	} else if open != nil {
		return nil, ErrChallengeActive
	}

	now := s.now()
	c := &models.DailyChallenge{
		ID:          uuid.New(),
		UserID:      userID,
		TargetTasks: targetTasks,
		PointsBet:   pointsBet,
		Multiplier:  models.DailyChallengeMultiplier(targetTasks),
		StartTime:   now,
		EndTime:     now.Add(models.DailyChallengeWindow),
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.Ledger.Debit(ctx, tx, userID, pointsBet, models.PointEntryChallengeStake, &c.ID); err != nil {
		return nil, err
	}
	if err := s.Challenges.CreateTx(ctx, tx, c); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the open challenge with progress recomputed from task data,
// settling lazily on the way: a met target pays out immediately, an elapsed
// window forfeits the stake. The sweep converges to the same outcome.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Status, error) {
	c, err := s.Challenges.GetOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNoChallenge
	}
	return s.evaluate(ctx, c)
}

// SettleExpired closes every open challenge whose window has elapsed. Called
// by the periodic settlement sweep. Returns how many challenges were closed.
func (s *Service) SettleExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.Challenges.ListExpiredOpen(ctx, now)
	if err != nil {
		return 0, err
	}
	settled := 0
	for _, c := range expired {
		if _, err := s.evaluate(ctx, c); err != nil {
			s.Log.Error("settle daily challenge", "challenge_id", c.ID, "error", err)
			continue
		}
		settled++
	}
	return settled, nil
}

// evaluate recomputes progress and applies whichever terminal transition the
// task data supports. Tasks completed inside the window necessarily happened
// before endTime, so a window-qualified count at or above target is a win
// even when evaluated after expiry.
func (s *Service) evaluate(ctx context.Context, c *models.DailyChallenge) (*Status, error) {
	count, err := s.Tasks.CountCompletedInWindow(ctx, c.UserID, c.StartTime, c.EndTime)
	if err != nil {
		return nil, err
	}
	st := &Status{Challenge: c, TasksCompleted: count}

	switch {
	case !c.Completed && c.SettledAt == nil && count >= c.TargetTasks:
		if err := s.settleWin(ctx, c); err != nil {
			return nil, err
		}
	case c.SettledAt == nil && s.now().After(c.EndTime):
		if err := s.settleForfeit(ctx, c); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (s *Service) settleWin(ctx context.Context, c *models.DailyChallenge) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	won, err := s.Challenges.MarkWon(ctx, tx, c.ID)
	if err != nil {
		return err
	}
	if !won {
		// Someone else settled first; nothing to pay.
		return nil
	}
	if _, err := s.Ledger.Credit(ctx, tx, c.UserID, c.Payout(), models.PointEntryChallengePayout, &c.ID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	c.Completed = true
	now := s.now()
	c.SettledAt = &now
	s.Log.Info("daily challenge won", "challenge_id", c.ID, "user_id", c.UserID, "payout", c.Payout())
	return nil
}

// settleForfeit closes a lost challenge. The stake was debited at creation,
// so no ledger action happens here.
func (s *Service) settleForfeit(ctx context.Context, c *models.DailyChallenge) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	closed, err := s.Challenges.MarkForfeited(ctx, tx, c.ID)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	if closed {
		now := s.now()
		c.SettledAt = &now
		s.Log.Info("daily challenge forfeited", "challenge_id", c.ID, "user_id", c.UserID, "stake", c.PointsBet)
	}
	return nil
}
