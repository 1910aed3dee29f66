package gamification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/repos"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
)

// StreakMilestone is the streak length at which streak badges start being
// evaluated.
const StreakMilestone = 7

type StreakResult struct {
	Current int
	Longest int
}

// StreakTracker maintains the consecutive-day activity streak cached on the
// user row.
type StreakTracker struct {
	log              *logger.Logger
	userRepo         repos.UserRepo
	userActivityRepo repos.UserActivityRepo
}

func NewStreakTracker(baseLog *logger.Logger, userRepo repos.UserRepo, userActivityRepo repos.UserActivityRepo) *StreakTracker {
	return &StreakTracker{
		log:              baseLog.With("service", "StreakTracker"),
		userRepo:         userRepo,
		userActivityRepo: userActivityRepo,
	}
}

// Update recomputes the user's streak for a completion happening at "now",
// excluding the just-completed activity from history. A previous completion
// yesterday extends the streak, one today leaves it unchanged, anything
// older (or nothing) resets it to 1.
func (t *StreakTracker) Update(ctx context.Context, tx *gorm.DB, u *types.User, triggeringActivityID uuid.UUID, now time.Time) (StreakResult, error) {
	last, err := t.userActivityRepo.LatestCompletedExcluding(ctx, tx, u.ID, triggeringActivityID)
	if err != nil {
		return StreakResult{}, err
	}

	today := dateOf(now)
	yesterday := dateOf(now.AddDate(0, 0, -1))

	current := u.CurrentStreak
	switch {
	case last == nil || last.CompletedAt == nil:
		current = 1
	case dateOf(*last.CompletedAt) == yesterday:
		current++
	case dateOf(*last.CompletedAt) == today:
		// Already counted today; keep the streak as is.
	default:
		current = 1
	}
	if current < 1 {
		current = 1
	}

	longest := u.LongestStreak
	if current > longest {
		longest = current
	}

	if err := t.userRepo.UpdateStreak(ctx, tx, u.ID, current, longest, now); err != nil {
		return StreakResult{}, err
	}
	u.CurrentStreak = current
	u.LongestStreak = longest
	u.LastActivityDate = &now

	t.log.Info("Streak updated",
		"user_id", u.ID,
		"current_streak", current,
		"longest_streak", longest,
	)
	return StreakResult{Current: current, Longest: longest}, nil
}

func dateOf(ts time.Time) string {
	return ts.Format("2006-01-02")
}
