package player

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

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
	ChallengedID string `json:"challenged_id"`
	PointsBet    int    `json:"points_bet"`
}

// Create handles POST /v1/challenges/player.
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
	challengedID, err := uuid.Parse(req.ChallengedID)
	if err != nil {
		http.Error(w, `{"error":"invalid challenged_id"}`, http.StatusBadRequest)
		return
	}
	c, err := h.svc.Create(r.Context(), userID, challengedID, req.PointsBet)
	if err != nil {
		switch {
		case errors.Is(err, ErrSelfChallenge), errors.Is(err, ErrInvalidStake):
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		case errors.Is(err, ledger.ErrInsufficientFunds):
			http.Error(w, `{"error":"insufficient funds"}`, http.StatusPaymentRequired)
		default:
			h.log.Error("create player challenge", "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

type respondRequest struct {
	Accept bool `json:"accept"`
}

// Respond handles POST /v1/challenges/player/{id}/respond.
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	challengeID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid challenge id"}`, http.StatusBadRequest)
		return
	}
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	c, err := h.svc.Respond(r.Context(), challengeID, userID, req.Accept)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, `{"error":"challenge not found"}`, http.StatusNotFound)
		case errors.Is(err, ErrNotChallenged):
			http.Error(w, `{"error":"only the challenged user may respond"}`, http.StatusForbidden)
		case errors.Is(err, ErrInvalidTransition):
			http.Error(w, `{"error":"challenge is not pending"}`, http.StatusConflict)
		case errors.Is(err, ledger.ErrInsufficientFunds):
			http.Error(w, `{"error":"insufficient funds"}`, http.StatusPaymentRequired)
		default:
			h.log.Error("respond to player challenge", "challenge_id", challengeID, "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// List handles GET /v1/challenges/player.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	list, err := h.svc.ListForUser(r.Context(), userID)
	if err != nil {
		h.log.Error("list player challenges", "error", err)
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
