package rewards

import (
	"github.com/google/uuid"

	"github.com/taskmaster/backend/internal/models"
)

// The catalog is static: items are not inventory-tracked and never change
// at runtime. IDs are fixed so journal entries stay referable across
// deploys.
var catalog = []models.RewardItem{
	{
		ID:          uuid.MustParse("a1000000-0000-0000-0000-000000000001"),
		Name:        "Dark Theme",
		Description: "A sleek dark theme for your dashboard with custom accent colors.",
		PointCost:   100,
		Type:        models.RewardTheme,
		ImageSrc:    "https://images.pexels.com/photos/3075993/pexels-photo-3075993.jpeg?auto=compress&cs=tinysrgb&w=800",
	},
	{
		ID:          uuid.MustParse("a1000000-0000-0000-0000-000000000002"),
		Name:        "Project Template Bundle",
		Description: "A collection of professional project management templates.",
		PointCost:   150,
		Type:        models.RewardTemplate,
	},
	{
		ID:          uuid.MustParse("a1000000-0000-0000-0000-000000000003"),
		Name:        "Time Management Guide",
		Description: "Expert tips and techniques for better time management.",
		PointCost:   75,
		Type:        models.RewardTip,
	},
	{
		ID:          uuid.MustParse("a1000000-0000-0000-0000-000000000004"),
		Name:        "Premium Analytics",
		Description: "Detailed insights and statistics about your productivity.",
		PointCost:   200,
		Type:        models.RewardPremium,
	},
	{
		ID:          uuid.MustParse("a1000000-0000-0000-0000-000000000005"),
		Name:        "Custom Avatars Pack",
		Description: "Exclusive avatar collection to personalize your profile.",
		PointCost:   120,
		Type:        models.RewardTheme,
		ImageSrc:    "https://images.pexels.com/photos/2815150/pexels-photo-2815150.jpeg?auto=compress&cs=tinysrgb&w=800",
	},
	{
		ID:          uuid.MustParse("a1000000-0000-0000-0000-000000000006"),
		Name:        "Focus Timer Pro",
		Description: "Advanced Pomodoro timer with customizable intervals.",
		PointCost:   180,
		Type:        models.RewardPremium,
	},
}
