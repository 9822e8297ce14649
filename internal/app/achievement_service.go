package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"edu-quiz-service/internal/domain"
)

// AchievementStore reads the aggregate counters and records badge awards.
type AchievementStore interface {
	CountResults(ctx context.Context, userID int64) (int, error)
	UserPoints(ctx context.Context, userID int64) (int, error)
	CountForums(ctx context.Context, userID int64) (int, error)
	SumCommentUpvotes(ctx context.Context, userID int64) (int, error)
	// AwardBadge inserts the award unless it exists; it reports whether a row was created.
	AwardBadge(ctx context.Context, userID, badgeID int64, at time.Time) (bool, error)
	ListBadgeAwards(ctx context.Context, userID int64) ([]domain.BadgeAward, error)
}

// AwardPublisher is notified of every newly created badge award.
type AwardPublisher interface {
	PublishAward(ctx context.Context, award domain.BadgeAward)
}

// AchievementService evaluates badge thresholds for a user.
type AchievementService struct {
	store     AchievementStore
	publisher AwardPublisher
	now       func() time.Time
}

// NewAchievementService builds the evaluator. publisher may be nil.
func NewAchievementService(store AchievementStore, publisher AwardPublisher) *AchievementService {
	return &AchievementService{store: store, publisher: publisher, now: time.Now}
}

// EvaluateAndAward checks every badge category and awards the highest tier
// reached in each one that the user does not already hold. Categories are
// independent: a failure in one is logged and the rest are still evaluated.
// It never returns an error; the result lists the awards created by this call.
func (s *AchievementService) EvaluateAndAward(ctx context.Context, userID int64) []domain.BadgeAward {
	var awarded []domain.BadgeAward
	for _, category := range domain.Categories {
		award, ok, err := s.evaluateCategory(ctx, userID, category)
		if err != nil {
			log.Printf("badge evaluation failed user=%d category=%s: %v", userID, category, err)
			continue
		}
		if !ok {
			continue
		}
		awarded = append(awarded, award)
		if s.publisher != nil {
			s.publisher.PublishAward(ctx, award)
		}
	}
	return awarded
}

func (s *AchievementService) evaluateCategory(ctx context.Context, userID int64, category domain.BadgeCategory) (domain.BadgeAward, bool, error) {
	counter, err := s.counter(ctx, userID, category)
	if err != nil {
		return domain.BadgeAward{}, false, err
	}
	badge, ok := domain.HighestTier(category, counter)
	if !ok {
		return domain.BadgeAward{}, false, nil
	}
	now := s.now().UTC()
	created, err := s.store.AwardBadge(ctx, userID, badge.ID, now)
	if err != nil {
		return domain.BadgeAward{}, false, fmt.Errorf("award badge %d: %w", badge.ID, err)
	}
	if !created {
		return domain.BadgeAward{}, false, nil
	}
	log.Printf("badge awarded user=%d badge=%q", userID, badge.Name)
	return domain.BadgeAward{UserID: userID, Badge: badge, AwardedAt: now}, true, nil
}

func (s *AchievementService) counter(ctx context.Context, userID int64, category domain.BadgeCategory) (int, error) {
	switch category {
	case domain.CategoryQuizMaster:
		return s.store.CountResults(ctx, userID)
	case domain.CategoryPointCollector:
		return s.store.UserPoints(ctx, userID)
	case domain.CategoryDiscussionStarter:
		return s.store.CountForums(ctx, userID)
	case domain.CategoryCommentUpvoter:
		return s.store.SumCommentUpvotes(ctx, userID)
	default:
		return 0, fmt.Errorf("unknown badge category %q", category)
	}
}

// Achievements returns the current counters and earned badges of a user.
func (s *AchievementService) Achievements(ctx context.Context, userID int64) (domain.Achievements, error) {
	var (
		out domain.Achievements
		err error
	)
	out.UserID = userID
	if out.Counters.QuizzesCompleted, err = s.store.CountResults(ctx, userID); err != nil {
		return domain.Achievements{}, err
	}
	if out.Counters.Points, err = s.store.UserPoints(ctx, userID); err != nil {
		return domain.Achievements{}, err
	}
	if out.Counters.DiscussionsStarted, err = s.store.CountForums(ctx, userID); err != nil {
		return domain.Achievements{}, err
	}
	if out.Counters.UpvotesReceived, err = s.store.SumCommentUpvotes(ctx, userID); err != nil {
		return domain.Achievements{}, err
	}
	if out.Badges, err = s.store.ListBadgeAwards(ctx, userID); err != nil {
		return domain.Achievements{}, err
	}
	return out, nil
}
