package pipeline

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/repos"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/gamification"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
	"github.com/eduforge/eduforge-backend/internal/services"
)

// Deps carries everything the gamification pipelines need. Handlers share
// one instance; all of it is safe for concurrent use.
type Deps struct {
	DB  *gorm.DB
	Log *logger.Logger

	UserRepo         repos.UserRepo
	CourseRepo       repos.CourseRepo
	ActivityRepo     repos.ActivityRepo
	EnrollmentRepo   repos.EnrollmentRepo
	UserActivityRepo repos.UserActivityRepo
	PointRepo        repos.PointRepo
	JobRunRepo       repos.JobRunRepo

	Ledger   *gamification.Ledger
	Badges   *gamification.BadgeEvaluator
	Streaks  *gamification.StreakTracker
	Progress *gamification.ProgressAggregator

	Notify      services.NotificationDispatcher
	Leaderboard services.LeaderboardService
}

// notification is a side effect deferred until the pipeline's transaction
// has committed. Sending before commit would announce outcomes that a
// rollback could erase.
type notification func(ctx context.Context)

// syncLevel reconciles the user's cached level with the ledger total and,
// on a level-up, grants level badges and queues the level-up notification.
// At most one level-up fires per run for a given user and target level.
func (d *Deps) syncLevel(ctx context.Context, tx *gorm.DB, u *types.User, notes *[]notification) error {
	total, err := d.Ledger.TotalFor(ctx, tx, u.ID)
	if err != nil {
		return err
	}
	u.TotalPoints = total
	oldLevel := u.Level
	if oldLevel < 1 {
		oldLevel = 1
	}
	// Levels never go down through the award path. A cached level above the
	// ledger total is drift, and repairing drift is the reconcile job's.
	newLevel := gamification.LevelForPoints(total)
	if newLevel <= oldLevel {
		return nil
	}
	if err := d.UserRepo.UpdateLevel(ctx, tx, u.ID, newLevel); err != nil {
		return err
	}
	u.Level = newLevel

	grants, err := d.Badges.CheckLevelUpBadges(ctx, tx, u, newLevel)
	if err != nil {
		return err
	}
	d.queueBadgeNotifications(u, grants, notes)

	tenantID := tenantOf(u)
	userID := u.ID
	title := gamification.LevelTitle(newLevel)
	level := newLevel
	*notes = append(*notes, func(ctx context.Context) {
		d.Notify.LevelUp(ctx, tenantID, userID, level, title)
	})
	d.Log.Info("Level up",
		"user_id", u.ID,
		"old_level", oldLevel,
		"new_level", newLevel,
		"total_points", total,
	)
	return nil
}

func (d *Deps) queueBadgeNotifications(u *types.User, grants []gamification.BadgeGrant, notes *[]notification) {
	tenantID := tenantOf(u)
	userID := u.ID
	for _, g := range grants {
		badge := g.Badge
		*notes = append(*notes, func(ctx context.Context) {
			d.Notify.BadgeEarned(ctx, tenantID, userID, badge)
		})
	}
}

func tenantOf(u *types.User) uuid.UUID {
	if u.TenantID != nil {
		return *u.TenantID
	}
	return uuid.Nil
}
