package models

import (
	"time"

	"github.com/google/uuid"
)

// Daily challenge stake bounds.
const (
	DailyChallengeMinBet     = 10
	DailyChallengeMinTargets = 1
	DailyChallengeMaxTargets = 10
	DailyChallengeWindow     = 24 * time.Hour
)

// DailyChallenge is a self-wagered bet that the user completes TargetTasks
// tasks inside the 24h window. Progress is never stored; it is derived from
// task completion timestamps on every read.
type DailyChallenge struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	TargetTasks int        `json:"target_tasks"`
	PointsBet   int        `json:"points_bet"`
	Multiplier  float64    `json:"multiplier"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	Completed   bool       `json:"completed"`
	// SettledAt closes the challenge: either the payout landed (Completed
	// true) or the window elapsed and the stake was forfeited. Nil means
	// still open.
	SettledAt *time.Time `json:"settled_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Payout is the amount credited when the challenge is won.
func (c *DailyChallenge) Payout() int {
	return payoutFor(c.PointsBet, c.Multiplier)
}

// DailyChallengeMultiplier is fixed at creation time: 1 + target/10.
func DailyChallengeMultiplier(targetTasks int) float64 {
	return 1 + float64(targetTasks)*0.1
}
