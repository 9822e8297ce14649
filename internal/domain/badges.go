package domain

import "time"

// BadgeCategory groups badges that are evaluated against the same counter.
type BadgeCategory string

const (
	CategoryQuizMaster        BadgeCategory = "quiz_master"
	CategoryPointCollector    BadgeCategory = "point_collector"
	CategoryDiscussionStarter BadgeCategory = "discussion_starter"
	CategoryCommentUpvoter    BadgeCategory = "comment_upvoter"
)

// Tier is the level of a badge within its category.
type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// Badge is a catalog entry: crossing Threshold on the category counter earns it.
type Badge struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Category  BadgeCategory `json:"category"`
	Tier      Tier          `json:"tier"`
	Threshold int           `json:"threshold"`
}

// BadgeAward records that a user holds a badge. Awards are permanent.
type BadgeAward struct {
	UserID    int64     `json:"userId"`
	Badge     Badge     `json:"badge"`
	AwardedAt time.Time `json:"awardedAt"`
}

// Categories lists the badge categories in evaluation order.
var Categories = []BadgeCategory{
	CategoryQuizMaster,
	CategoryPointCollector,
	CategoryDiscussionStarter,
	CategoryCommentUpvoter,
}

// BadgeCatalog is the fixed set of badges. IDs are stable and seeded by migrations.
var BadgeCatalog = []Badge{
	{ID: 1, Name: "Quiz Master Bronze", Category: CategoryQuizMaster, Tier: TierBronze, Threshold: 2},
	{ID: 2, Name: "Quiz Master Silver", Category: CategoryQuizMaster, Tier: TierSilver, Threshold: 4},
	{ID: 3, Name: "Quiz Master Gold", Category: CategoryQuizMaster, Tier: TierGold, Threshold: 6},
	{ID: 4, Name: "Point Collector Bronze", Category: CategoryPointCollector, Tier: TierBronze, Threshold: 10},
	{ID: 5, Name: "Point Collector Silver", Category: CategoryPointCollector, Tier: TierSilver, Threshold: 50},
	{ID: 6, Name: "Point Collector Gold", Category: CategoryPointCollector, Tier: TierGold, Threshold: 100},
	{ID: 7, Name: "Discussion Starter Bronze", Category: CategoryDiscussionStarter, Tier: TierBronze, Threshold: 1},
	{ID: 8, Name: "Discussion Starter Gold", Category: CategoryDiscussionStarter, Tier: TierGold, Threshold: 5},
	{ID: 9, Name: "Comment Upvoter Gold", Category: CategoryCommentUpvoter, Tier: TierGold, Threshold: 5},
}

// HighestTier returns the badge of the highest threshold in category that
// counter meets, or false when no tier qualifies.
func HighestTier(category BadgeCategory, counter int) (Badge, bool) {
	var best Badge
	found := false
	for _, b := range BadgeCatalog {
		if b.Category != category || counter < b.Threshold {
			continue
		}
		if !found || b.Threshold > best.Threshold {
			best = b
			found = true
		}
	}
	return best, found
}

// BadgeByID looks up a catalog entry.
func BadgeByID(id int64) (Badge, bool) {
	for _, b := range BadgeCatalog {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// AchievementCounters are the aggregate counters the badge categories read.
type AchievementCounters struct {
	QuizzesCompleted   int `json:"quizzesCompleted"`
	Points             int `json:"points"`
	DiscussionsStarted int `json:"discussionsStarted"`
	UpvotesReceived    int `json:"upvotesReceived"`
}

// Achievements is the read model of a user's counters and earned badges.
type Achievements struct {
	UserID   int64               `json:"userId"`
	Counters AchievementCounters `json:"counters"`
	Badges   []BadgeAward        `json:"badges"`
}
