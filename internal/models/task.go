package models

import (
	"time"

	"github.com/google/uuid"
)

// Task carries only the fields the points core reads. Notes, due dates and
// the rest of the task surface live with the task collaborator.
type Task struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Title   string    `json:"title"`
	Points  int       `json:"points"`
	// CompletedAt is set exactly when Completed flips to true and cleared
	// when it flips back. Challenge windows are evaluated against it.
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// AutoCompleteOnCreate marks the onboarding "create your first task"
	// task: it completes itself the first time the owner creates any other
	// task.
	AutoCompleteOnCreate bool      `json:"auto_complete_on_create"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
