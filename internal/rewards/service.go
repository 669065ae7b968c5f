package rewards

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskmaster/backend/internal/models"
)

// ErrNotFound is returned for an unknown item id.
var ErrNotFound = errors.New("reward item not found")

type Ledger interface {
	Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, entryType string, refID *uuid.UUID) (int, error)
}

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service sells catalog items. A purchase is nothing but a price-gated
// debit: no inventory moves and no ownership record exists beyond the
// journal entry.
type Service struct {
	Pool   TxBeginner
	Ledger Ledger
}

func NewService(pool TxBeginner, ledger Ledger) *Service {
	return &Service{Pool: pool, Ledger: ledger}
}

// Items returns the full catalog.
func (s *Service) Items() []models.RewardItem {
	out := make([]models.RewardItem, len(catalog))
	copy(out, catalog)
	return out
}

// ItemByID looks up a catalog item.
func (s *Service) ItemByID(id uuid.UUID) (models.RewardItem, bool) {
	for _, item := range catalog {
		if item.ID == id {
			return item, true
		}
	}
	return models.RewardItem{}, false
}

// Purchase debits the item's cost. The debit outcome is the purchase
// outcome: ledger.ErrInsufficientFunds means not purchased, balance
// unchanged.
func (s *Service) Purchase(ctx context.Context, userID, itemID uuid.UUID) (newBalance int, err error) {
	item, ok := s.ItemByID(itemID)
	if !ok {
		return 0, ErrNotFound
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	newBalance, err = s.Ledger.Debit(ctx, tx, userID, item.PointCost, models.PointEntryRewardPurchase, &item.ID)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newBalance, nil
}
