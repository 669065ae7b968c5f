package rewards

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskmaster/backend/internal/ledger"
	"github.com/taskmaster/backend/internal/models"
	"github.com/taskmaster/backend/internal/testutil"
)

type mockBalances struct {
	mu     sync.Mutex
	points map[uuid.UUID]int
}

func newMockBalances() *mockBalances {
	return &mockBalances{points: make(map[uuid.UUID]int)}
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

func newTestService(t *testing.T) (*Service, *mockBalances, *mockJournal) {
	t.Helper()
	balances := newMockBalances()
	journal := &mockJournal{}
	svc := NewService(&testutil.Pool{}, ledger.NewService(balances, journal))
	return svc, balances, journal
}

func TestItems(t *testing.T) {
	svc, _, _ := newTestService(t)
	items := svc.Items()
	if len(items) == 0 {
		t.Fatal("catalog should not be empty")
	}
	for _, item := range items {
		if item.PointCost <= 0 {
			t.Errorf("item %q has non-positive cost %d", item.Name, item.PointCost)
		}
		if item.Name == "" || item.Description == "" {
			t.Errorf("item %s is missing name or description", item.ID)
		}
	}

	// Items returns a copy, not the catalog itself.
	items[0].PointCost = -1
	if svc.Items()[0].PointCost == -1 {
		t.Error("mutating the returned slice must not affect the catalog")
	}
}

func TestPurchase(t *testing.T) {
	svc, balances, journal := newTestService(t)
	user := uuid.New()
	item := svc.Items()[0]
	balances.points[user] = item.PointCost + 40

	newBalance, err := svc.Purchase(context.Background(), user, item.ID)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if newBalance != 40 {
		t.Errorf("balance after purchase: got %d, want 40", newBalance)
	}

	journal.mu.Lock()
	defer journal.mu.Unlock()
	if len(journal.entries) != 1 {
		t.Fatalf("journal entries: got %d, want 1", len(journal.entries))
	}
	e := journal.entries[0]
	if e.EntryType != models.PointEntryRewardPurchase {
		t.Errorf("entry type: got %s, want %s", e.EntryType, models.PointEntryRewardPurchase)
	}
	if e.RefID == nil || *e.RefID != item.ID {
		t.Error("entry should reference the purchased item")
	}
}

func TestPurchaseExactBalance(t *testing.T) {
	svc, balances, _ := newTestService(t)
	user := uuid.New()
	item := svc.Items()[0]
	balances.points[user] = item.PointCost

	newBalance, err := svc.Purchase(context.Background(), user, item.ID)
	if err != nil {
		t.Fatalf("Purchase at exact balance: %v", err)
	}
	if newBalance != 0 {
		t.Errorf("balance: got %d, want 0", newBalance)
	}
}

func TestPurchaseInsufficientFunds(t *testing.T) {
	svc, balances, journal := newTestService(t)
	user := uuid.New()
	item := svc.Items()[0]
	balances.points[user] = item.PointCost - 1

	if _, err := svc.Purchase(context.Background(), user, item.ID); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got, _ := balances.GetPoints(context.Background(), user); got != item.PointCost-1 {
		t.Errorf("balance unchanged after failed purchase: got %d, want %d", got, item.PointCost-1)
	}
	journal.mu.Lock()
	defer journal.mu.Unlock()
	if len(journal.entries) != 0 {
		t.Errorf("no journal entry on failed purchase, got %d", len(journal.entries))
	}
}

func TestPurchaseUnknownItem(t *testing.T) {
	svc, balances, _ := newTestService(t)
	user := uuid.New()
	balances.points[user] = 1000

	if _, err := svc.Purchase(context.Background(), user, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got, _ := balances.GetPoints(context.Background(), user); got != 1000 {
		t.Errorf("balance unchanged: got %d, want 1000", got)
	}
}
