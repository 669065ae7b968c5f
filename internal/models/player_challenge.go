package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Player challenge lifecycle states.
const (
	PlayerChallengePending  = "PENDING"
	PlayerChallengeAccepted = "ACCEPTED"
	PlayerChallengeDeclined = "DECLINED"
	PlayerChallengeSettled  = "SETTLED"
	PlayerChallengeExpired  = "EXPIRED"
)

// Player challenge stake bounds.
const (
	PlayerChallengeMinBet = 5
	PlayerChallengeMaxBet = 500
	PlayerChallengeWindow = 24 * time.Hour
)

// PlayerChallenge is a two-user wager. The challenger's stake is escrowed at
// creation; the challenged user's stake is escrowed on accept. Whoever
// completes more qualifying tasks inside the window takes the pot.
type PlayerChallenge struct {
	ID           uuid.UUID  `json:"id"`
	ChallengerID uuid.UUID  `json:"challenger_id"`
	ChallengedID uuid.UUID  `json:"challenged_id"`
	PointsBet    int        `json:"points_bet"`
	Status       string     `json:"status"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      time.Time  `json:"end_time"`
	WinnerID     *uuid.UUID `json:"winner_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Pot is the total paid to the winner once both stakes are in.
func (c *PlayerChallenge) Pot() int { return 2 * c.PointsBet }

func payoutFor(bet int, multiplier float64) int {
	return int(math.Round(float64(bet) * multiplier))
}
