package player

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
	// ErrSelfChallenge is returned when a user challenges themselves.
	ErrSelfChallenge = errors.New("cannot challenge yourself")
	// ErrInvalidStake is returned for bets outside [5, 500].
	ErrInvalidStake = errors.New("stake outside allowed bounds")
	// ErrNotFound is returned for an unknown challenge id.
	ErrNotFound = errors.New("challenge not found")
	// ErrNotChallenged is returned when someone other than the challenged
	// user responds.
	ErrNotChallenged = errors.New("only the challenged user may respond")
	// ErrInvalidTransition is returned when a response or settlement hits a
	// challenge that already left the required state.
	ErrInvalidTransition = errors.New("challenge is not in a respondable state")
)

// Store is the challenge repository subset the engine needs. Transition is
// a guarded compare-and-set on status; it is what makes accept, decline and
// settlement exactly-once under concurrent requests.
type Store interface {
	CreateTx(ctx context.Context, tx pgx.Tx, c *models.PlayerChallenge) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PlayerChallenge, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.PlayerChallenge, error)
	Transition(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (bool, error)
	SetWinner(ctx context.Context, tx pgx.Tx, id uuid.UUID, winnerID *uuid.UUID) error
	ListExpiredByStatus(ctx context.Context, status string, now time.Time) ([]*models.PlayerChallenge, error)
}

// TaskCounter derives each party's qualifying completions, same windowing
// rule as the daily engine.
type TaskCounter interface {
	CountCompletedInWindow(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (int, error)
}

type Ledger interface {
	Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, entryType string, refID *uuid.UUID) (int, error)
	Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, entryType string, refID *uuid.UUID) (int, error)
}

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service drives the two-user wager lifecycle:
// PENDING -> ACCEPTED -> SETTLED, or PENDING -> DECLINED/EXPIRED.
type Service struct {
	Pool       TxBeginner
	Challenges Store
	Tasks      TaskCounter
	Ledger     Ledger
	Log        *slog.Logger

	now func() time.Time
}

func NewService(pool TxBeginner, challenges Store, tasks TaskCounter, ledger Ledger, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{Pool: pool, Challenges: challenges, Tasks: tasks, Ledger: ledger, Log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Create escrows the challenger's stake and opens a PENDING challenge.
func (s *Service) Create(ctx context.Context, challengerID, challengedID uuid.UUID, pointsBet int) (*models.PlayerChallenge, error) {
	if challengerID == challengedID {
		return nil, ErrSelfChallenge
	}
	if pointsBet < models.PlayerChallengeMinBet || pointsBet > models.PlayerChallengeMaxBet {
		return nil, ErrInvalidStake
	}

	now := s.now()
	c := &models.PlayerChallenge{
		ID:           uuid.New(),
		ChallengerID: challengerID,
		ChallengedID: challengedID,
		PointsBet:    pointsBet,
		Status:       models.PlayerChallengePending,
		StartTime:    now,
		EndTime:      now.Add(models.PlayerChallengeWindow),
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.Ledger.Debit(ctx, tx, challengerID, pointsBet, models.PointEntryChallengeStake, &c.ID); err != nil {
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

// Respond is the challenged user's accept or decline. Decline returns the
// challenger's stake. Accept escrows the challenged user's stake first; if
// that debit fails the challenge stays PENDING untouched.
func (s *Service) Respond(ctx context.Context, challengeID, userID uuid.UUID, accept bool) (*models.PlayerChallenge, error) {
	c, err := s.Challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, ErrNotFound
	}
	if c.ChallengedID != userID {
		return nil, ErrNotChallenged
	}
	if c.Status != models.PlayerChallengePending {
		return nil, ErrInvalidTransition
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if accept {
		// Stake first: a failed debit aborts before any state changes.
		if _, err := s.Ledger.Debit(ctx, tx, userID, c.PointsBet, models.PointEntryChallengeStake, &c.ID); err != nil {
			return nil, err
		}
		moved, err := s.Challenges.Transition(ctx, tx, c.ID, models.PlayerChallengePending, models.PlayerChallengeAccepted)
		if err != nil {
			return nil, err
		}
		if !moved {
			return nil, ErrInvalidTransition
		}
		c.Status = models.PlayerChallengeAccepted
	} else {
		moved, err := s.Challenges.Transition(ctx, tx, c.ID, models.PlayerChallengePending, models.PlayerChallengeDeclined)
		if err != nil {
			return nil, err
		}
		if !moved {
			return nil, ErrInvalidTransition
		}
		if _, err := s.Ledger.Credit(ctx, tx, c.ChallengerID, c.PointsBet, models.PointEntryStakeRefund, &c.ID); err != nil {
			return nil, err
		}
		c.Status = models.PlayerChallengeDeclined
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// ListForUser returns the user's incoming and outgoing challenges.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.PlayerChallenge, error) {
	return s.Challenges.ListForUser(ctx, userID)
}

// Settle resolves an ACCEPTED challenge at or after its end time. The
// SETTLED transition is taken inside the payout transaction, so only the
// attempt that wins the compare-and-set pays out; repeats are no-ops.
func (s *Service) Settle(ctx context.Context, c *models.PlayerChallenge) error {
	if c.Status != models.PlayerChallengeAccepted || s.now().Before(c.EndTime) {
		return nil
	}

	challengerCount, err := s.Tasks.CountCompletedInWindow(ctx, c.ChallengerID, c.StartTime, c.EndTime)
	if err != nil {
		return err
	}
	challengedCount, err := s.Tasks.CountCompletedInWindow(ctx, c.ChallengedID, c.StartTime, c.EndTime)
	if err != nil {
		return err
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	moved, err := s.Challenges.Transition(ctx, tx, c.ID, models.PlayerChallengeAccepted, models.PlayerChallengeSettled)
	if err != nil {
		return err
	}
	if !moved {
		return nil
	}

	switch {
	case challengerCount > challengedCount:
		if err := s.payWinner(ctx, tx, c, c.ChallengerID); err != nil {
			return err
		}
	case challengedCount > challengerCount:
		if err := s.payWinner(ctx, tx, c, c.ChallengedID); err != nil {
			return err
		}
	default:
		// Tie: each side gets their own stake back.
		if _, err := s.Ledger.Credit(ctx, tx, c.ChallengerID, c.PointsBet, models.PointEntryStakeRefund, &c.ID); err != nil {
			return err
		}
		if _, err := s.Ledger.Credit(ctx, tx, c.ChallengedID, c.PointsBet, models.PointEntryStakeRefund, &c.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	c.Status = models.PlayerChallengeSettled
	s.Log.Info("player challenge settled", "challenge_id", c.ID,
		"challenger_count", challengerCount, "challenged_count", challengedCount, "winner_id", c.WinnerID)
	return nil
}

func (s *Service) payWinner(ctx context.Context, tx pgx.Tx, c *models.PlayerChallenge, winnerID uuid.UUID) error {
	if err := s.Challenges.SetWinner(ctx, tx, c.ID, &winnerID); err != nil {
		return err
	}
	if _, err := s.Ledger.Credit(ctx, tx, winnerID, c.Pot(), models.PointEntryChallengePayout, &c.ID); err != nil {
		return err
	}
	c.WinnerID = &winnerID
	return nil
}

// SettleExpired settles every ACCEPTED challenge past its window and expires
// stale PENDING ones, refunding the challenger. Returns how many challenges
// changed state.
func (s *Service) SettleExpired(ctx context.Context, now time.Time) (int, error) {
	settled := 0

	accepted, err := s.Challenges.ListExpiredByStatus(ctx, models.PlayerChallengeAccepted, now)
	if err != nil {
		return 0, err
	}
	for _, c := range accepted {
		if err := s.Settle(ctx, c); err != nil {
			s.Log.Error("settle player challenge", "challenge_id", c.ID, "error", err)
			continue
		}
		settled++
	}

	pending, err := s.Challenges.ListExpiredByStatus(ctx, models.PlayerChallengePending, now)
	if err != nil {
		return settled, err
	}
	for _, c := range pending {
		if err := s.expirePending(ctx, c); err != nil {
			s.Log.Error("expire player challenge", "challenge_id", c.ID, "error", err)
			continue
		}
		settled++
	}
	return settled, nil
}

// expirePending closes an unanswered challenge and returns the challenger's
// stake.
func (s *Service) expirePending(ctx context.Context, c *models.PlayerChallenge) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	moved, err := s.Challenges.Transition(ctx, tx, c.ID, models.PlayerChallengePending, models.PlayerChallengeExpired)
	if err != nil {
		return err
	}
	if !moved {
		return nil
	}
	if _, err := s.Ledger.Credit(ctx, tx, c.ChallengerID, c.PointsBet, models.PointEntryStakeRefund, &c.ID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	c.Status = models.PlayerChallengeExpired
	return nil
}
