package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskmaster/backend/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory mocks for BalanceRepo and JournalRepo. The deduct guard is
// applied under the mutex, mirroring the store's conditional update.
// ---------------------------------------------------------------------------

type mockBalances struct {
	mu     sync.Mutex
	points map[uuid.UUID]int
}

func newMockBalances() *mockBalances {
	return &mockBalances{points: make(map[uuid.UUID]int)}
}

func (m *mockBalances) set(id uuid.UUID, points int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points[id] = points
}

func (m *mockBalances) GetPoints(_ context.Context, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.points[id]
	if !ok {
		return 0, fmt.Errorf("user %s not found", id)
	}
	return p, nil
}

func (m *mockBalances) DeductPoints(_ context.Context, _ pgx.Tx, id uuid.UUID, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.points[id]
	if !ok || p < amount {
		return 0, pgx.ErrNoRows
	}
	m.points[id] = p - amount
	return m.points[id], nil
}

func (m *mockBalances) AddPoints(_ context.Context, _ pgx.Tx, id uuid.UUID, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points[id] += amount
	return m.points[id], nil
}

type mockJournal struct {
	mu      sync.Mutex
	entries []*models.PointEntry
}

func (m *mockJournal) CreateTx(_ context.Context, _ pgx.Tx, e *models.PointEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockJournal) all() []*models.PointEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.PointEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// signedAmount returns the delta an entry represents for its user: stakes,
// reclaims and purchases deduct, everything else adds.
func signedAmount(e *models.PointEntry) int {
	switch e.EntryType {
	case models.PointEntryChallengeStake, models.PointEntryTaskReclaim, models.PointEntryRewardPurchase:
		return -e.Amount
	default:
		return e.Amount
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCreditAndDebit(t *testing.T) {
	user := uuid.New()
	balances := newMockBalances()
	balances.set(user, 100)
	journal := &mockJournal{}
	svc := NewService(balances, journal)

	ctx := context.Background()

	newBalance, err := svc.Credit(ctx, nil, user, 40, models.PointEntryTaskAward, nil)
	if err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if newBalance != 140 {
		t.Errorf("balance after credit: got %d, want 140", newBalance)
	}

	newBalance, err = svc.Debit(ctx, nil, user, 90, models.PointEntryChallengeStake, nil)
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if newBalance != 50 {
		t.Errorf("balance after debit: got %d, want 50", newBalance)
	}

	entries := journal.all()
	if len(entries) != 2 {
		t.Fatalf("journal entries: got %d, want 2", len(entries))
	}
	if entries[0].BalanceAfter == nil || *entries[0].BalanceAfter != 140 {
		t.Error("credit entry should record balance_after 140")
	}
	if entries[1].BalanceAfter == nil || *entries[1].BalanceAfter != 50 {
		t.Error("debit entry should record balance_after 50")
	}
}

func TestDebitInsufficientFunds(t *testing.T) {
	user := uuid.New()
	balances := newMockBalances()
	balances.set(user, 30)
	journal := &mockJournal{}
	svc := NewService(balances, journal)

	ctx := context.Background()
	if _, err := svc.Debit(ctx, nil, user, 31, models.PointEntryRewardPurchase, nil); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got: %v", err)
	}

	// No partial effect: balance untouched, nothing journaled.
	if got, _ := svc.Balance(ctx, user); got != 30 {
		t.Errorf("balance after failed debit: got %d, want 30", got)
	}
	if n := len(journal.all()); n != 0 {
		t.Errorf("journal entries after failed debit: got %d, want 0", n)
	}
}

func TestInvalidAmounts(t *testing.T) {
	user := uuid.New()
	balances := newMockBalances()
	balances.set(user, 10)
	svc := NewService(balances, &mockJournal{})

	ctx := context.Background()
	for _, amount := range []int{0, -5} {
		if _, err := svc.Credit(ctx, nil, user, amount, models.PointEntryTaskAward, nil); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Credit(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
		if _, err := svc.Debit(ctx, nil, user, amount, models.PointEntryTaskReclaim, nil); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Debit(%d): expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

// TestConservation runs a mixed sequence and asserts that the journal fully
// accounts for the balance: initial + SUM(signed entries) == final, and the
// balance never dips below zero along the way.
func TestConservation(t *testing.T) {
	user := uuid.New()
	const initial = 100

	balances := newMockBalances()
	balances.set(user, initial)
	journal := &mockJournal{}
	svc := NewService(balances, journal)

	ctx := context.Background()
	ops := []struct {
		debit     bool
		amount    int
		entryType string
	}{
		{false, 25, models.PointEntryTaskAward},
		{true, 60, models.PointEntryChallengeStake},
		{false, 90, models.PointEntryChallengePayout},
		{true, 200, models.PointEntryRewardPurchase}, // fails: only 155 available
		{true, 155, models.PointEntryRewardPurchase},
		{false, 10, models.PointEntryStakeRefund},
	}

	for i, op := range ops {
		var err error
		if op.debit {
			_, err = svc.Debit(ctx, nil, user, op.amount, op.entryType, nil)
		} else {
			_, err = svc.Credit(ctx, nil, user, op.amount, op.entryType, nil)
		}
		if err != nil && !errors.Is(err, ErrInsufficientFunds) {
			t.Fatalf("op %d: %v", i, err)
		}
		if got, _ := svc.Balance(ctx, user); got < 0 {
			t.Fatalf("op %d: balance went negative: %d", i, got)
		}
	}

	sum := 0
	for _, e := range journal.all() {
		sum += signedAmount(e)
	}
	final, _ := svc.Balance(ctx, user)
	if initial+sum != final {
		t.Errorf("conservation violated: initial(%d) + journal_sum(%d) = %d, but balance is %d",
			initial, sum, initial+sum, final)
	}
	if final != 10 {
		t.Errorf("final balance: got %d, want 10", final)
	}
}

// TestConcurrentDebits fires N simultaneous debits of the full balance;
// exactly one may succeed and the balance must never go negative.
func TestConcurrentDebits(t *testing.T) {
	user := uuid.New()
	const balance = 100
	const attempts = 16

	balances := newMockBalances()
	balances.set(user, balance)
	journal := &mockJournal{}
	svc := NewService(balances, journal)

	ctx := context.Background()
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Debit(ctx, nil, user, balance, models.PointEntryChallengeStake, nil); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("successful debits: got %d, want exactly 1", succeeded)
	}
	final, _ := svc.Balance(ctx, user)
	if final != 0 {
		t.Errorf("final balance: got %d, want 0", final)
	}
}
