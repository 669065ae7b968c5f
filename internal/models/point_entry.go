package models

import (
	"time"

	"github.com/google/uuid"
)

// Point ledger entry_type values.
const (
	PointEntryTaskAward      = "task_award"
	PointEntryTaskReclaim    = "task_reclaim"
	PointEntryChallengeStake = "challenge_stake"
	PointEntryChallengePayout = "challenge_payout"
	PointEntryStakeRefund    = "stake_refund"
	PointEntryRewardPurchase = "reward_purchase"
)

// PointEntry is one row of the append-only points journal. Amount is always
// positive; entry_type says which direction it moved.
type PointEntry struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	RefID        *uuid.UUID `json:"ref_id,omitempty"`
	EntryType    string     `json:"entry_type"`
	Amount       int        `json:"amount"`
	BalanceAfter *int       `json:"balance_after,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
