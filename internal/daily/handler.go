package daily

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taskmaster/backend/internal/ledger"
	"github.com/taskmaster/backend/internal/middleware"
)

type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

type createRequest struct {
	TargetTasks int `json:"target_tasks"`
	PointsBet   int `json:"points_bet"`
}

// Create handles POST /v1/challenges/daily.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	c, err := h.svc.Create(r.Context(), userID, req.TargetTasks, req.PointsBet)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidTarget), errors.Is(err, ErrInvalidStake):
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		case errors.Is(err, ErrChallengeActive):
			http.Error(w, `{"error":"a daily challenge is already active"}`, http.StatusConflict)
		case errors.Is(err, ledger.ErrInsufficientFunds):
			http.Error(w, `{"error":"insufficient funds"}`, http.StatusPaymentRequired)
		default:
			h.log.Error("create daily challenge", "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Get handles GET /v1/challenges/daily.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	st, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNoChallenge) {
			http.Error(w, `{"error":"no active daily challenge"}`, http.StatusNotFound)
			return
		}
		h.log.Error("get daily challenge", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
