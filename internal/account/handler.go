package account

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/taskmaster/backend/internal/middleware"
	"github.com/taskmaster/backend/internal/models"
)

// UserRepo is the user lookup subset the handler needs.
type UserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

// JournalRepo lists recent point entries.
type JournalRepo interface {
	ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*models.PointEntry, error)
}

// Handler serves the balance surface the UI polls.
type Handler struct {
	users   UserRepo
	journal JournalRepo
	log     *slog.Logger
}

func NewHandler(users UserRepo, journal JournalRepo, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{users: users, journal: journal, log: log}
}

// GetMe handles GET /v1/me: the balance plus recent journal entries.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		h.log.Error("get user", "user_id", userID, "error", err)
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}
	entries, err := h.journal.ListByUserID(r.Context(), userID, 50)
	if err != nil {
		h.log.Error("list point entries", "user_id", userID, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"points":   u.Points,
		"entries":  entries,
	})
}

// ListUsers handles GET /v1/users: the opponent picker for player
// challenges.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.List(r.Context())
	if err != nil {
		h.log.Error("list users", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
