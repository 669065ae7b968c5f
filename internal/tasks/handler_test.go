package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/taskmaster/backend/internal/middleware"
	"github.com/taskmaster/backend/internal/models"
)

func newHandlerFixture(t *testing.T) (*Handler, *Service, *mockBalances, uuid.UUID) {
	t.Helper()
	svc, _, balances, _ := newTestService(t)
	user := uuid.New()
	balances.points[user] = 0
	h := NewHandler(svc, slog.New(slog.DiscardHandler))
	return h, svc, balances, user
}

func authedJSONRequest(method, target, body string, userID uuid.UUID) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return r.WithContext(middleware.WithUserID(r.Context(), userID))
}

// =====================================================================
// POST /v1/tasks
// =====================================================================

func TestCreateTask_ValidPayload(t *testing.T) {
	h, _, _, user := newHandlerFixture(t)

	req := authedJSONRequest(http.MethodPost, "/v1/tasks", `{"title":"ship release","points":25}`, user)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Title != "ship release" || resp.Points != 25 {
		t.Errorf("unexpected task in response: %+v", resp)
	}
	if resp.Completed {
		t.Error("new task must not be completed")
	}
}

func TestCreateTask_Invalid(t *testing.T) {
	h, _, _, user := newHandlerFixture(t)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"title":`},
		{"missing title", `{"points":10}`},
		{"zero points", `{"title":"x","points":0}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := authedJSONRequest(http.MethodPost, "/v1/tasks", c.body, user)
			rec := httptest.NewRecorder()
			h.Create(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateTask_Unauthenticated(t *testing.T) {
	h, _, _, _ := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/tasks", strings.NewReader(`{"title":"x","points":5}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

// =====================================================================
// POST /v1/tasks/{id}/complete and /uncomplete
// =====================================================================

func TestCompleteTask(t *testing.T) {
	h, svc, balances, user := newHandlerFixture(t)
	task, err := svc.Create(context.Background(), user, "review PR", 15, false)
	if err != nil {
		t.Fatalf("seed task: %v", err)
	}

	req := authedJSONRequest(http.MethodPost, fmt.Sprintf("/v1/tasks/%s/complete", task.ID), "", user)
	req.SetPathValue("id", task.ID.String())
	rec := httptest.NewRecorder()
	h.Complete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Completed {
		t.Error("response task should be completed")
	}
	if got, _ := balances.GetPoints(context.Background(), user); got != 15 {
		t.Errorf("balance after completion: got %d, want 15", got)
	}
}

func TestCompleteTask_NotFound(t *testing.T) {
	h, _, _, user := newHandlerFixture(t)

	req := authedJSONRequest(http.MethodPost, "/v1/tasks/x/complete", "", user)
	req.SetPathValue("id", uuid.New().String())
	rec := httptest.NewRecorder()
	h.Complete(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCompleteTask_BadID(t *testing.T) {
	h, _, _, user := newHandlerFixture(t)

	req := authedJSONRequest(http.MethodPost, "/v1/tasks/nope/complete", "", user)
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()
	h.Complete(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUncompleteTask(t *testing.T) {
	h, svc, balances, user := newHandlerFixture(t)
	ctx := context.Background()
	task, _ := svc.Create(ctx, user, "standup notes", 10, false)
	if _, err := svc.Complete(ctx, user, task.ID); err != nil {
		t.Fatalf("seed completion: %v", err)
	}

	req := authedJSONRequest(http.MethodPost, fmt.Sprintf("/v1/tasks/%s/uncomplete", task.ID), "", user)
	req.SetPathValue("id", task.ID.String())
	rec := httptest.NewRecorder()
	h.Uncomplete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got, _ := balances.GetPoints(ctx, user); got != 0 {
		t.Errorf("balance after reclaim: got %d, want 0", got)
	}
}

// =====================================================================
// GET /v1/tasks
// =====================================================================

func TestListTasks(t *testing.T) {
	h, svc, _, user := newHandlerFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, user, fmt.Sprintf("task %d", i), 10, false); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	// Another user's task must not leak into the listing.
	other := uuid.New()
	if _, err := svc.Create(ctx, other, "not yours", 10, false); err != nil {
		t.Fatalf("seed other: %v", err)
	}

	req := authedJSONRequest(http.MethodGet, "/v1/tasks", "", user)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var list []models.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("listed tasks: got %d, want 3", len(list))
	}
}
