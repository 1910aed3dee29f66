package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/gamification"
	"github.com/eduforge/eduforge-backend/internal/jobs/runtime"
	"github.com/eduforge/eduforge-backend/internal/pkg/dbctx"
)

// ActivityCompletion processes one recorded activity completion: points,
// badges, level, streak and course progress, in that order. The whole
// pipeline runs in a single transaction keyed to the completion record, so
// a redelivered signal replays as a no-op.
type ActivityCompletion struct {
	deps *Deps
}

func NewActivityCompletion(deps *Deps) *ActivityCompletion {
	return &ActivityCompletion{deps: deps}
}

func (p *ActivityCompletion) Type() string { return types.JobTypeActivityCompletion }

func (p *ActivityCompletion) Run(jc *runtime.Context) error {
	userID, ok := jc.PayloadUUID("user_id")
	if !ok {
		return runtime.Permanent(fmt.Errorf("payload missing user_id"))
	}
	activityID, ok := jc.PayloadUUID("activity_id")
	if !ok {
		return runtime.Permanent(fmt.Errorf("payload missing activity_id"))
	}
	completionID, ok := jc.PayloadUUID("user_activity_id")
	if !ok {
		return runtime.Permanent(fmt.Errorf("payload missing user_activity_id"))
	}
	score, ok := jc.PayloadInt("score")
	if !ok || score < 0 || score > 100 {
		return runtime.Permanent(fmt.Errorf("payload score out of range"))
	}
	var timeSpent *int
	if v, ok := jc.PayloadInt("time_spent_seconds"); ok {
		timeSpent = &v
	}
	completedAt, ok := jc.PayloadTime("completed_at")
	if !ok {
		completedAt = time.Now().UTC()
	}

	d := p.deps
	ctx := jc.Ctx
	var notes []notification
	var u *types.User
	result := map[string]any{}

	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		u, err = d.UserRepo.GetByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return runtime.Permanent(fmt.Errorf("user %s not found", userID))
		}
		activity, err := d.ActivityRepo.GetByID(ctx, tx, activityID)
		if err != nil {
			return err
		}
		if activity == nil {
			return runtime.Permanent(fmt.Errorf("activity %s not found", activityID))
		}
		course, err := d.CourseRepo.GetByID(ctx, tx, activity.CourseID)
		if err != nil {
			return err
		}
		if course == nil {
			return runtime.Permanent(fmt.Errorf("course %s not found", activity.CourseID))
		}
		jc.Progress("loaded", 10)

		points := gamification.ActivityPoints(activity, score, timeSpent)
		if points > 0 {
			_, awarded, err := d.Ledger.AwardOnce(ctx, tx, u.ID, points,
				types.PointTypeEarned, types.PointSourceActivity, completionID,
				"Completed activity: "+activity.Title)
			if err != nil {
				return err
			}
			result["points_awarded"] = points
			result["points_new"] = awarded
		}
		tenantID := tenantOf(u)
		notes = append(notes, func(ctx context.Context) {
			d.Notify.ActivityCompleted(ctx, tenantID, userID, activity, score, points)
		})
		jc.Progress("points", 30)

		grants, err := d.Badges.EvaluateActivityBadges(ctx, tx, u, activity, score)
		if err != nil {
			return err
		}
		d.queueBadgeNotifications(u, grants, &notes)
		result["badges_earned"] = len(grants)
		jc.Progress("badges", 50)

		if err := d.syncLevel(ctx, tx, u, &notes); err != nil {
			return err
		}
		jc.Progress("level", 60)

		streak, err := d.Streaks.Update(ctx, tx, u, activityID, completedAt)
		if err != nil {
			return err
		}
		if streak.Current >= gamification.StreakMilestone {
			streakGrants, err := d.Badges.CheckStreakBadges(ctx, tx, u, streak.Current)
			if err != nil {
				return err
			}
			d.queueBadgeNotifications(u, streakGrants, &notes)
			if len(streakGrants) > 0 {
				days := streak.Current
				notes = append(notes, func(ctx context.Context) {
					d.Notify.StreakMilestone(ctx, tenantID, userID, days)
				})
			}
		}
		result["streak"] = streak.Current
		jc.Progress("streak", 70)

		progress, err := d.Progress.Recompute(ctx, tx, u, course, completedAt)
		if err != nil {
			return err
		}
		result["progress_percentage"] = progress.Percentage
		if progress.JustCompleted {
			if err := p.enqueueCourseCompletion(ctx, tx, jc.Job.TenantID, u, course, progress.Enrollment); err != nil {
				return err
			}
			result["course_completed"] = true
		}
		jc.Progress("progress", 90)

		// Streak badge bonuses land after syncLevel's cache read, so the
		// in-memory total is refreshed once more for the leaderboard write.
		total, err := d.Ledger.TotalFor(ctx, tx, u.ID)
		if err != nil {
			return err
		}
		u.TotalPoints = total
		return nil
	})
	if err != nil {
		return err
	}

	d.Leaderboard.SetScore(ctx, jc.Job.TenantID, u.ID, u.TotalPoints)
	for _, n := range notes {
		n(ctx)
	}
	jc.Succeed("done", result)
	return nil
}

// enqueueCourseCompletion chains the course pipeline inside the same
// transaction as the progress transition. The dedupe key pins one course
// completion job per enrollment.
func (p *ActivityCompletion) enqueueCourseCompletion(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, u *types.User, course *types.Course, enrollment *types.CourseEnrollment) error {
	payload, err := json.Marshal(map[string]any{
		"user_id":   u.ID,
		"course_id": course.ID,
	})
	if err != nil {
		return err
	}
	courseID := course.ID
	job := &types.JobRun{
		ID:          uuid.New(),
		TenantID:    tenantID,
		OwnerUserID: u.ID,
		JobType:     types.JobTypeCourseCompletion,
		EntityType:  "course_enrollment",
		EntityID:    &enrollment.ID,
		DedupeKey:   fmt.Sprintf("course_completion:%s", enrollment.ID),
		Status:      types.JobStatusQueued,
		Stage:       "queued",
		Payload:     datatypes.JSON(payload),
	}
	created, err := p.deps.JobRunRepo.Enqueue(dbctx.Context{Ctx: ctx, Tx: tx}, job)
	if err != nil {
		return err
	}
	if created {
		p.deps.Log.Info("Course completion queued",
			"user_id", u.ID,
			"course_id", courseID,
			"enrollment_id", enrollment.ID,
		)
	}
	return nil
}
