package models

import "github.com/google/uuid"

// Reward item types. The catalog is display-only today; behaviour does not
// differ by type, but effect-bearing types would dispatch on this tag.
type RewardType string

const (
	RewardTheme    RewardType = "theme"
	RewardTemplate RewardType = "template"
	RewardTip      RewardType = "tip"
	RewardPremium  RewardType = "premium"
)

// RewardItem is immutable catalog data. Purchases debit points and journal
// the spend; items are not inventory-tracked and remain purchasable.
type RewardItem struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	PointCost   int        `json:"point_cost"`
	Type        RewardType `json:"type"`
	ImageSrc    string     `json:"image_src,omitempty"`
}
