package tasks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskmaster/backend/internal/ledger"
	"github.com/taskmaster/backend/internal/models"
)

// ErrNotFound is returned for an unknown task id, or a task that does not
// belong to the caller.
var ErrNotFound = errors.New("task not found")

// ErrInvalidPoints is returned when a task is created with a non-positive
// point value.
var ErrInvalidPoints = errors.New("task points must be positive")

// Store is the task repository subset the gateway needs.
type Store interface {
	Create(ctx context.Context, t *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Task, error)
	MarkCompleted(ctx context.Context, tx pgx.Tx, id, ownerID uuid.UUID, at time.Time) (bool, error)
	MarkUncompleted(ctx context.Context, tx pgx.Tx, id, ownerID uuid.UUID) (bool, error)
	FindPendingAutoComplete(ctx context.Context, ownerID, excludeID uuid.UUID) (*models.Task, error)
}

// Ledger is the points interface the gateway mutates through.
type Ledger interface {
	Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, entryType string, refID *uuid.UUID) (int, error)
	Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, entryType string, refID *uuid.UUID) (int, error)
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service is the boundary between task state changes and the ledger: it
// awards points when a task completes and reclaims them when it is
// un-completed. It is the only writer of the points side effect.
type Service struct {
	Pool   TxBeginner
	Tasks  Store
	Ledger Ledger
	Log    *slog.Logger
}

func NewService(pool TxBeginner, tasks Store, ledger Ledger, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{Pool: pool, Tasks: tasks, Ledger: ledger, Log: log}
}

// Create persists a new task. The first task a user creates auto-completes
// their pending onboarding task through the normal completion path, so the
// onboarding award uses the same credit path as everything else.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, title string, points int, autoCompleteOnCreate bool) (*models.Task, error) {
	if points <= 0 {
		return nil, ErrInvalidPoints
	}
	t := &models.Task{
		ID:                   uuid.New(),
		OwnerID:              ownerID,
		Title:                title,
		Points:               points,
		AutoCompleteOnCreate: autoCompleteOnCreate,
	}
	if err := s.Tasks.Create(ctx, t); err != nil {
		return nil, err
	}

	starter, err := s.Tasks.FindPendingAutoComplete(ctx, ownerID, t.ID)
	if err != nil {
		s.Log.Error("find onboarding task", "owner_id", ownerID, "error", err)
		return t, nil
	}
	if starter != nil {
		if _, err := s.Complete(ctx, ownerID, starter.ID); err != nil {
			s.Log.Error("auto-complete onboarding task", "task_id", starter.ID, "error", err)
		}
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, ownerID, taskID uuid.UUID) (*models.Task, error) {
	t, err := s.Tasks.GetByID(ctx, taskID)
	if err != nil || t.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return t, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Task, error) {
	return s.Tasks.ListByOwner(ctx, ownerID)
}

// Complete marks the task done and credits its point value. Completing an
// already-completed task is a no-op: the guarded transition affects zero
// rows, so no second credit can happen.
func (s *Service) Complete(ctx context.Context, ownerID, taskID uuid.UUID) (*models.Task, error) {
	t, err := s.Tasks.GetByID(ctx, taskID)
	if err != nil || t.OwnerID != ownerID {
		return nil, ErrNotFound
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	changed, err := s.Tasks.MarkCompleted(ctx, tx, taskID, ownerID, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return t, nil
	}
	if _, err := s.Ledger.Credit(ctx, tx, ownerID, t.Points, models.PointEntryTaskAward, &t.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	t.Completed = true
	t.CompletedAt = &now
	return t, nil
}

// Uncomplete flips the task back and reclaims the award. The reclaim is
// best-effort: if the points were already spent the debit fails, the flag
// still flips, and the gap is logged for reconciliation. Blocking the task
// transition on ledger state would corrupt the task-completion contract.
// Un-completing an already-incomplete task is a no-op.
func (s *Service) Uncomplete(ctx context.Context, ownerID, taskID uuid.UUID) (*models.Task, error) {
	t, err := s.Tasks.GetByID(ctx, taskID)
	if err != nil || t.OwnerID != ownerID {
		return nil, ErrNotFound
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	changed, err := s.Tasks.MarkUncompleted(ctx, tx, taskID, ownerID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return t, nil
	}
	if _, err := s.Ledger.Debit(ctx, tx, ownerID, t.Points, models.PointEntryTaskReclaim, &t.ID); err != nil {
		if !errors.Is(err, ledger.ErrInsufficientFunds) {
			return nil, err
		}
		s.Log.Warn("points already spent, reclaim skipped", "task_id", taskID, "owner_id", ownerID, "points", t.Points)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	t.Completed = false
	t.CompletedAt = nil
	return t, nil
}
