package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskmaster/backend/internal/models"
)

// ErrInsufficientFunds is returned when a debit asks for more than the
// balance holds. The balance is left untouched and the caller must treat
// the operation as not performed, not as retryable.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInvalidAmount is returned for zero or negative credit/debit amounts.
var ErrInvalidAmount = errors.New("amount must be positive")

// BalanceRepo is the minimal user-balance interface the ledger needs. The
// real implementation performs conditional single-statement updates;
// DeductPoints reports pgx.ErrNoRows when the balance guard fails.
type BalanceRepo interface {
	GetPoints(ctx context.Context, id uuid.UUID) (int, error)
	DeductPoints(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (newBalance int, err error)
	AddPoints(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (newBalance int, err error)
}

// JournalRepo records every balance mutation.
type JournalRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, e *models.PointEntry) error
}

// Service is the sole mutation path for user balances. Every spend in the
// system (challenge stakes, reward purchases, completion reversals) goes
// through Debit, so the insufficient-funds guard is enforced in one place.
type Service struct {
	Users   BalanceRepo
	Journal JournalRepo
}

func NewService(users BalanceRepo, journal JournalRepo) *Service {
	return &Service{Users: users, Journal: journal}
}

// Credit adds amount to the user's balance and journals the entry. Call
// within a transaction so the journal and the balance move together.
func (s *Service) Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, entryType string, refID *uuid.UUID) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	newBalance, err := s.Users.AddPoints(ctx, tx, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("credit %d to %s: %w", amount, userID, err)
	}
	if err := s.journal(ctx, tx, userID, amount, newBalance, entryType, refID); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Debit removes amount if the balance covers it. The guard lives in the
// store's conditional update, never in application read-then-write code, so
// concurrent debits cannot overdraw.
func (s *Service) Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, entryType string, refID *uuid.UUID) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	newBalance, err := s.Users.DeductPoints(ctx, tx, userID, amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInsufficientFunds
		}
		return 0, fmt.Errorf("debit %d from %s: %w", amount, userID, err)
	}
	if err := s.journal(ctx, tx, userID, amount, newBalance, entryType, refID); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Balance reads the current balance. Reads are eventually consistent with
// concurrent writers; callers accept staleness of one store round trip.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.Users.GetPoints(ctx, userID)
}

func (s *Service) journal(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount, balanceAfter int, entryType string, refID *uuid.UUID) error {
	after := balanceAfter
	return s.Journal.CreateTx(ctx, tx, &models.PointEntry{
		ID:           uuid.New(),
		UserID:       userID,
		RefID:        refID,
		EntryType:    entryType,
		Amount:       amount,
		BalanceAfter: &after,
	})
}
