package gamification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/repos"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
)

// WelcomeBadgeName is the special badge granted on a user's first enrollment.
const WelcomeBadgeName = "Welcome"

// BadgeGrant is one badge awarded during an evaluation pass.
type BadgeGrant struct {
	Badge     *types.Badge
	UserBadge *types.UserBadge
}

// BadgeEvaluator checks the active badge catalog against a user's progress
// and grants whatever newly matches. One badge failing to evaluate does not
// block the rest of the catalog.
type BadgeEvaluator struct {
	log              *logger.Logger
	badgeRepo        repos.BadgeRepo
	userBadgeRepo    repos.UserBadgeRepo
	userActivityRepo repos.UserActivityRepo
	enrollmentRepo   repos.EnrollmentRepo
	ledger           *Ledger
}

func NewBadgeEvaluator(
	baseLog *logger.Logger,
	badgeRepo repos.BadgeRepo,
	userBadgeRepo repos.UserBadgeRepo,
	userActivityRepo repos.UserActivityRepo,
	enrollmentRepo repos.EnrollmentRepo,
	ledger *Ledger,
) *BadgeEvaluator {
	return &BadgeEvaluator{
		log:              baseLog.With("service", "BadgeEvaluator"),
		badgeRepo:        badgeRepo,
		userBadgeRepo:    userBadgeRepo,
		userActivityRepo: userActivityRepo,
		enrollmentRepo:   enrollmentRepo,
		ledger:           ledger,
	}
}

// EvaluateActivityBadges runs after an activity completion. The score is the
// one from the triggering completion.
func (e *BadgeEvaluator) EvaluateActivityBadges(ctx context.Context, tx *gorm.DB, u *types.User, activity *types.Activity, score int) ([]BadgeGrant, error) {
	badges, err := e.badgeRepo.ListActiveByTypes(ctx, tx,
		types.BadgeTypeActivityCompletion,
		types.BadgeTypeScoreAchievement,
		types.BadgeTypeParticipation,
	)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{"activity_id": activity.ID, "score": score}
	return e.evaluate(ctx, tx, u, badges, meta, func(c types.BadgeCriteria) (bool, error) {
		return e.matchesActivityCriteria(ctx, tx, u, c, score)
	})
}

// EvaluateCourseCompletionBadges runs after an enrollment transitions to
// completed.
func (e *BadgeEvaluator) EvaluateCourseCompletionBadges(ctx context.Context, tx *gorm.DB, u *types.User, course *types.Course) ([]BadgeGrant, error) {
	badges, err := e.badgeRepo.ListActiveByTypes(ctx, tx,
		types.BadgeTypeCourseCompletion,
		types.BadgeTypeParticipation,
	)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{"course_id": course.ID}
	return e.evaluate(ctx, tx, u, badges, meta, func(c types.BadgeCriteria) (bool, error) {
		return e.matchesCourseCriteria(ctx, tx, u, c)
	})
}

// EvaluateEnrollmentBadges runs after a new enrollment is created.
func (e *BadgeEvaluator) EvaluateEnrollmentBadges(ctx context.Context, tx *gorm.DB, u *types.User, course *types.Course) ([]BadgeGrant, error) {
	badges, err := e.badgeRepo.ListActiveByTypes(ctx, tx, types.BadgeTypeParticipation)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{"course_id": course.ID}
	return e.evaluate(ctx, tx, u, badges, meta, func(c types.BadgeCriteria) (bool, error) {
		if c.EnrollmentsCount == nil {
			return false, nil
		}
		count, err := e.enrollmentRepo.CountByUser(ctx, tx, u.ID)
		if err != nil {
			return false, err
		}
		return count >= int64(*c.EnrollmentsCount), nil
	})
}

// CheckLevelUpBadges grants level badges whose threshold the new level has
// reached.
func (e *BadgeEvaluator) CheckLevelUpBadges(ctx context.Context, tx *gorm.DB, u *types.User, newLevel int) ([]BadgeGrant, error) {
	badges, err := e.badgeRepo.ListActiveByTypes(ctx, tx, types.BadgeTypeLevel)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{"level": newLevel}
	return e.evaluate(ctx, tx, u, badges, meta, func(c types.BadgeCriteria) (bool, error) {
		return c.Level != nil && newLevel >= *c.Level, nil
	})
}

// CheckStreakBadges grants streak badges whose day count the current streak
// has reached. Callers only invoke it once the streak is at least
// StreakMilestone days long.
func (e *BadgeEvaluator) CheckStreakBadges(ctx context.Context, tx *gorm.DB, u *types.User, streakDays int) ([]BadgeGrant, error) {
	badges, err := e.badgeRepo.ListActiveByTypes(ctx, tx, types.BadgeTypeStreak)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{"streak_days": streakDays}
	return e.evaluate(ctx, tx, u, badges, meta, func(c types.BadgeCriteria) (bool, error) {
		return c.StreakDays != nil && streakDays >= *c.StreakDays, nil
	})
}

// AwardWelcomeBadge grants the tenant's "Welcome" special badge, if one is
// configured. A missing catalog entry is not an error.
func (e *BadgeEvaluator) AwardWelcomeBadge(ctx context.Context, tx *gorm.DB, u *types.User) (*BadgeGrant, error) {
	badge, err := e.badgeRepo.GetActiveByTypeAndName(ctx, tx, types.BadgeTypeSpecial, WelcomeBadgeName)
	if err != nil {
		return nil, err
	}
	if badge == nil {
		return nil, nil
	}
	grant, err := e.grant(ctx, tx, u, badge, map[string]any{"reason": "first_enrollment"})
	if err != nil {
		return nil, err
	}
	return grant, nil
}

type criteriaMatcher func(c types.BadgeCriteria) (bool, error)

func (e *BadgeEvaluator) evaluate(ctx context.Context, tx *gorm.DB, u *types.User, badges []*types.Badge, meta map[string]any, matches criteriaMatcher) ([]BadgeGrant, error) {
	var grants []BadgeGrant
	for _, badge := range badges {
		held, err := e.userBadgeRepo.Has(ctx, tx, u.ID, badge.ID)
		if err != nil {
			return nil, err
		}
		if held {
			continue
		}
		criteria, err := badge.DecodeCriteria()
		if err != nil {
			e.log.Warn("Skipping badge with malformed criteria",
				"badge_id", badge.ID,
				"badge_name", badge.Name,
				"error", err,
			)
			continue
		}
		ok, err := matches(criteria)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		grant, err := e.grantIsolated(ctx, tx, u, badge, meta)
		if err != nil {
			e.log.Warn("Badge grant failed, continuing with catalog",
				"badge_id", badge.ID,
				"badge_name", badge.Name,
				"error", err,
			)
			continue
		}
		if grant != nil {
			grants = append(grants, *grant)
		}
	}
	return grants, nil
}

// matchesActivityCriteria covers the criteria families that apply after an
// activity completion. A badge with none of them set never matches here.
func (e *BadgeEvaluator) matchesActivityCriteria(ctx context.Context, tx *gorm.DB, u *types.User, c types.BadgeCriteria, score int) (bool, error) {
	switch {
	case c.ActivitiesCompleted != nil:
		count, err := e.userActivityRepo.CountQualifyingCompleted(ctx, tx, u.ID, MinPassingScore)
		if err != nil {
			return false, err
		}
		return count >= int64(*c.ActivitiesCompleted), nil
	case c.PerfectScore != nil && *c.PerfectScore:
		return score >= 100, nil
	case c.MinScore != nil:
		return score >= *c.MinScore, nil
	case c.AverageScore != nil:
		avg, err := e.userActivityRepo.AverageScore(ctx, tx, u.ID)
		if err != nil {
			return false, err
		}
		return avg >= *c.AverageScore, nil
	}
	return false, nil
}

func (e *BadgeEvaluator) matchesCourseCriteria(ctx context.Context, tx *gorm.DB, u *types.User, c types.BadgeCriteria) (bool, error) {
	switch {
	case c.CoursesCompleted != nil:
		count, err := e.enrollmentRepo.CountCompletedByUser(ctx, tx, u.ID)
		if err != nil {
			return false, err
		}
		return count >= int64(*c.CoursesCompleted), nil
	case c.AverageScore != nil:
		avg, err := e.userActivityRepo.AverageScore(ctx, tx, u.ID)
		if err != nil {
			return false, err
		}
		return avg >= *c.AverageScore, nil
	}
	return false, nil
}

// grantIsolated runs grant inside a savepoint. One badge's rejected insert
// must not abort the surrounding transaction or stop the catalog loop; the
// other badges still land.
func (e *BadgeEvaluator) grantIsolated(ctx context.Context, tx *gorm.DB, u *types.User, badge *types.Badge, meta map[string]any) (*BadgeGrant, error) {
	if tx == nil {
		return e.grant(ctx, tx, u, badge, meta)
	}
	var grant *BadgeGrant
	err := tx.Transaction(func(stx *gorm.DB) error {
		g, err := e.grant(ctx, stx, u, badge, meta)
		if err != nil {
			return err
		}
		grant = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grant, nil
}

// grant inserts the UserBadge row and, for a fresh grant, awards the badge's
// point value. The OnConflict insert plus the ledger award key make replays
// of the same grant inert.
func (e *BadgeEvaluator) grant(ctx context.Context, tx *gorm.DB, u *types.User, badge *types.Badge, meta map[string]any) (*BadgeGrant, error) {
	var metadata datatypes.JSON
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			return nil, err
		}
		metadata = datatypes.JSON(raw)
	}

	ub := &types.UserBadge{
		ID:       uuid.New(),
		TenantID: badge.TenantID,
		UserID:   u.ID,
		BadgeID:  badge.ID,
		EarnedAt: time.Now().UTC(),
		Metadata: metadata,
	}
	created, err := e.userBadgeRepo.Grant(ctx, tx, ub)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil
	}

	if badge.PointsValue > 0 {
		_, _, err := e.ledger.AwardOnce(ctx, tx, u.ID, badge.PointsValue,
			types.PointTypeBonus, types.PointSourceBadge, badge.ID,
			"Earned badge: "+badge.Name)
		if err != nil {
			return nil, err
		}
	}

	e.log.Info("Badge earned",
		"user_id", u.ID,
		"badge_id", badge.ID,
		"badge_name", badge.Name,
		"badge_type", badge.Type,
		"points_value", badge.PointsValue,
	)
	return &BadgeGrant{Badge: badge, UserBadge: ub}, nil
}
