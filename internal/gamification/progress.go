package gamification

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/repos"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
)

type ProgressResult struct {
	Percentage    float64
	JustCompleted bool
	Enrollment    *types.CourseEnrollment
}

// ProgressAggregator recomputes a user's percentage completion of a course
// from the underlying activity completions.
type ProgressAggregator struct {
	log              *logger.Logger
	activityRepo     repos.ActivityRepo
	enrollmentRepo   repos.EnrollmentRepo
	userActivityRepo repos.UserActivityRepo
}

func NewProgressAggregator(baseLog *logger.Logger, activityRepo repos.ActivityRepo, enrollmentRepo repos.EnrollmentRepo, userActivityRepo repos.UserActivityRepo) *ProgressAggregator {
	return &ProgressAggregator{
		log:              baseLog.With("service", "ProgressAggregator"),
		activityRepo:     activityRepo,
		enrollmentRepo:   enrollmentRepo,
		userActivityRepo: userActivityRepo,
	}
}

// Recompute updates the enrollment's progress percentage and, when it first
// reaches 100, marks the enrollment completed. JustCompleted reports true
// for exactly one call per enrollment: the completed_at IS NULL guard in
// MarkCompleted makes replays inert.
func (p *ProgressAggregator) Recompute(ctx context.Context, tx *gorm.DB, u *types.User, course *types.Course, now time.Time) (ProgressResult, error) {
	enrollment, err := p.enrollmentRepo.GetByUserAndCourseForUpdate(ctx, tx, u.ID, course.ID)
	if err != nil {
		return ProgressResult{}, err
	}
	if enrollment == nil {
		// Not enrolled: nothing to aggregate.
		return ProgressResult{}, nil
	}

	total, err := p.activityRepo.CountActiveByCourse(ctx, tx, course.ID)
	if err != nil {
		return ProgressResult{}, err
	}
	completed, err := p.userActivityRepo.CountQualifyingInCourse(ctx, tx, u.ID, course.ID, MinPassingScore)
	if err != nil {
		return ProgressResult{}, err
	}

	percentage := 0.0
	if total > 0 {
		percentage = math.Round(float64(completed)/float64(total)*100*100) / 100
	}
	if err := p.enrollmentRepo.UpdateProgress(ctx, tx, enrollment.ID, percentage); err != nil {
		return ProgressResult{}, err
	}
	enrollment.ProgressPercentage = percentage

	result := ProgressResult{Percentage: percentage, Enrollment: enrollment}
	if percentage >= 100 && enrollment.CompletedAt == nil {
		justCompleted, err := p.enrollmentRepo.MarkCompleted(ctx, tx, enrollment.ID, now)
		if err != nil {
			return ProgressResult{}, err
		}
		if justCompleted {
			enrollment.CompletedAt = &now
			result.JustCompleted = true
		}
	}

	p.log.Info("Course progress recomputed",
		"user_id", u.ID,
		"course_id", course.ID,
		"progress_percentage", percentage,
		"completed_activities", completed,
		"total_activities", total,
		"just_completed", result.JustCompleted,
	)
	return result, nil
}
