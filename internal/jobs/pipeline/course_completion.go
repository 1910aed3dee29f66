package pipeline

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/gamification"
	"github.com/eduforge/eduforge-backend/internal/jobs/runtime"
)

// CourseCompletion awards the course completion points, including the speed
// bonus, and evaluates course badges. It runs after the enrollment's
// completed_at transition, in its own job so a crash between the two
// pipelines loses nothing.
type CourseCompletion struct {
	deps *Deps
}

func NewCourseCompletion(deps *Deps) *CourseCompletion {
	return &CourseCompletion{deps: deps}
}

func (p *CourseCompletion) Type() string { return types.JobTypeCourseCompletion }

func (p *CourseCompletion) Run(jc *runtime.Context) error {
	userID, ok := jc.PayloadUUID("user_id")
	if !ok {
		return runtime.Permanent(fmt.Errorf("payload missing user_id"))
	}
	courseID, ok := jc.PayloadUUID("course_id")
	if !ok {
		return runtime.Permanent(fmt.Errorf("payload missing course_id"))
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
		course, err := d.CourseRepo.GetByID(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if course == nil {
			return runtime.Permanent(fmt.Errorf("course %s not found", courseID))
		}
		enrollment, err := d.EnrollmentRepo.GetByUserAndCourse(ctx, tx, userID, courseID)
		if err != nil {
			return err
		}
		if enrollment == nil {
			return runtime.Permanent(fmt.Errorf("enrollment for user %s in course %s not found", userID, courseID))
		}
		if enrollment.CompletedAt == nil {
			// Progress was recomputed downward before this job ran. Nothing
			// to award.
			result["skipped"] = "enrollment not completed"
			return nil
		}
		jc.Progress("loaded", 20)

		points := gamification.CoursePoints(course, enrollment.EnrolledAt, *enrollment.CompletedAt)
		_, awarded, err := d.Ledger.AwardOnce(ctx, tx, u.ID, points,
			types.PointTypeEarned, types.PointSourceCourse, course.ID,
			"Completed course: "+course.Title)
		if err != nil {
			return err
		}
		result["points_awarded"] = points
		result["points_new"] = awarded
		tenantID := tenantOf(u)
		notes = append(notes, func(ctx context.Context) {
			d.Notify.CourseCompleted(ctx, tenantID, userID, course, points)
		})
		jc.Progress("points", 50)

		grants, err := d.Badges.EvaluateCourseCompletionBadges(ctx, tx, u, course)
		if err != nil {
			return err
		}
		d.queueBadgeNotifications(u, grants, &notes)
		result["badges_earned"] = len(grants)
		jc.Progress("badges", 70)

		if err := d.syncLevel(ctx, tx, u, &notes); err != nil {
			return err
		}
		jc.Progress("level", 90)
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
