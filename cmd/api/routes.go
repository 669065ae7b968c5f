package main

import (
	"net/http"

	"github.com/taskmaster/backend/internal/account"
	"github.com/taskmaster/backend/internal/daily"
	"github.com/taskmaster/backend/internal/middleware"
	"github.com/taskmaster/backend/internal/player"
	"github.com/taskmaster/backend/internal/rewards"
	"github.com/taskmaster/backend/internal/tasks"
)

// NewRouter builds the /v1 API. Every route runs behind the auth
// collaborator's token check; the handlers read the user id from context.
func NewRouter(
	jwtSecret []byte,
	accountHandler *account.Handler,
	taskHandler *tasks.Handler,
	dailyHandler *daily.Handler,
	playerHandler *player.Handler,
	rewardHandler *rewards.Handler,
) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.UserAuth(jwtSecret)

	mux.Handle("GET /v1/me", auth(http.HandlerFunc(accountHandler.GetMe)))
	mux.Handle("GET /v1/users", auth(http.HandlerFunc(accountHandler.ListUsers)))

	mux.Handle("POST /v1/tasks", auth(http.HandlerFunc(taskHandler.Create)))
	mux.Handle("GET /v1/tasks", auth(http.HandlerFunc(taskHandler.List)))
	mux.Handle("POST /v1/tasks/{id}/complete", auth(http.HandlerFunc(taskHandler.Complete)))
	mux.Handle("POST /v1/tasks/{id}/uncomplete", auth(http.HandlerFunc(taskHandler.Uncomplete)))

	mux.Handle("POST /v1/challenges/daily", auth(http.HandlerFunc(dailyHandler.Create)))
	mux.Handle("GET /v1/challenges/daily", auth(http.HandlerFunc(dailyHandler.Get)))

	mux.Handle("POST /v1/challenges/player", auth(http.HandlerFunc(playerHandler.Create)))
	mux.Handle("GET /v1/challenges/player", auth(http.HandlerFunc(playerHandler.List)))
	mux.Handle("POST /v1/challenges/player/{id}/respond", auth(http.HandlerFunc(playerHandler.Respond)))

	mux.Handle("GET /v1/rewards", auth(http.HandlerFunc(rewardHandler.List)))
	mux.Handle("POST /v1/rewards/{id}/purchase", auth(http.HandlerFunc(rewardHandler.Purchase)))

	return mux
}
