package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/repos"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/dbctx"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
	"github.com/eduforge/eduforge-backend/internal/tenancy"
)

var (
	ErrNotEnrolled       = fmt.Errorf("user is not enrolled in the course")
	ErrActivityLocked    = fmt.Errorf("a required earlier activity has not been passed")
	ErrActivityNotFound  = fmt.Errorf("activity not found")
	ErrInvalidScore      = fmt.Errorf("score must be between 0 and 100")
	ErrActivityInactive  = fmt.Errorf("activity is not active")
	ErrCourseNotFound    = fmt.Errorf("course not found")
	ErrUserNotFound      = fmt.Errorf("user not found")
	ErrAlreadyEnrolled   = fmt.Errorf("user is already enrolled in the course")
	ErrCourseUnavailable = fmt.Errorf("course is not open for enrollment")
)

// CompleteActivityInput is one completion signal from the learning surface.
type CompleteActivityInput struct {
	UserID           uuid.UUID
	ActivityID       uuid.UUID
	Score            int
	TimeSpentSeconds *int
	Metadata         map[string]any
}

// ActivityService records completion signals and hands them to the job
// queue. Recording and enqueueing share a transaction, so a signal is
// either durable with its processing job or not recorded at all.
type ActivityService interface {
	CompleteActivity(ctx context.Context, in CompleteActivityInput) (*types.UserActivity, *types.JobRun, error)
}

type activityService struct {
	db             *gorm.DB
	log            *logger.Logger
	userRepo       repos.UserRepo
	activityRepo   repos.ActivityRepo
	enrollmentRepo repos.EnrollmentRepo
	uaRepo         repos.UserActivityRepo
	jobRepo        repos.JobRunRepo
}

func NewActivityService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	activityRepo repos.ActivityRepo,
	enrollmentRepo repos.EnrollmentRepo,
	uaRepo repos.UserActivityRepo,
	jobRepo repos.JobRunRepo,
) ActivityService {
	return &activityService{
		db:             db,
		log:            baseLog.With("service", "ActivityService"),
		userRepo:       userRepo,
		activityRepo:   activityRepo,
		enrollmentRepo: enrollmentRepo,
		uaRepo:         uaRepo,
		jobRepo:        jobRepo,
	}
}

func (s *activityService) CompleteActivity(ctx context.Context, in CompleteActivityInput) (*types.UserActivity, *types.JobRun, error) {
	tenantID, err := tenancy.Require(ctx)
	if err != nil {
		return nil, nil, err
	}
	if in.Score < 0 || in.Score > 100 {
		return nil, nil, ErrInvalidScore
	}

	var (
		record *types.UserActivity
		job    *types.JobRun
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.userRepo.GetByID(ctx, tx, in.UserID)
		if err != nil {
			return err
		}
		if u == nil {
			return ErrUserNotFound
		}
		activity, err := s.activityRepo.GetByID(ctx, tx, in.ActivityID)
		if err != nil {
			return err
		}
		if activity == nil {
			return ErrActivityNotFound
		}
		if !activity.IsActive {
			return ErrActivityInactive
		}
		enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, tx, in.UserID, activity.CourseID)
		if err != nil {
			return err
		}
		if enrollment == nil {
			return ErrNotEnrolled
		}
		unlocked, err := s.isUnlocked(ctx, tx, in.UserID, activity)
		if err != nil {
			return err
		}
		if !unlocked {
			return ErrActivityLocked
		}

		now := time.Now().UTC()
		var metadata datatypes.JSON
		if len(in.Metadata) > 0 {
			raw, err := json.Marshal(in.Metadata)
			if err != nil {
				return err
			}
			metadata = datatypes.JSON(raw)
		}
		record = &types.UserActivity{
			ID:               uuid.New(),
			TenantID:         tenantID,
			UserID:           in.UserID,
			ActivityID:       in.ActivityID,
			StartedAt:        &now,
			CompletedAt:      &now,
			Score:            in.Score,
			Attempts:         1,
			TimeSpentSeconds: in.TimeSpentSeconds,
			Metadata:         metadata,
		}
		if err := s.uaRepo.Create(ctx, tx, record); err != nil {
			return err
		}

		payload := map[string]any{
			"user_id":          in.UserID,
			"activity_id":      in.ActivityID,
			"user_activity_id": record.ID,
			"score":            in.Score,
			"completed_at":     now.Format(time.RFC3339),
		}
		if in.TimeSpentSeconds != nil {
			payload["time_spent_seconds"] = *in.TimeSpentSeconds
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		job = &types.JobRun{
			ID:          uuid.New(),
			TenantID:    tenantID,
			OwnerUserID: in.UserID,
			JobType:     types.JobTypeActivityCompletion,
			EntityType:  "user_activity",
			EntityID:    &record.ID,
			DedupeKey:   fmt.Sprintf("activity_completion:%s", record.ID),
			Status:      types.JobStatusQueued,
			Stage:       "queued",
			Payload:     datatypes.JSON(raw),
		}
		if _, err := s.jobRepo.Enqueue(dbctx.Context{Ctx: ctx, Tx: tx}, job); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("Activity completion recorded",
		"user_id", in.UserID,
		"activity_id", in.ActivityID,
		"score", in.Score,
		"job_id", job.ID,
	)
	return record, job, nil
}

// isUnlocked enforces sequential progression inside a course: every earlier
// required activity must have a passing completion. Quizzes pass at 70, all
// other types at 1.
func (s *activityService) isUnlocked(ctx context.Context, tx *gorm.DB, userID uuid.UUID, activity *types.Activity) (bool, error) {
	prior, err := s.activityRepo.ListPriorInCourse(ctx, tx, activity.CourseID, activity.OrderIndex)
	if err != nil {
		return false, err
	}
	for _, a := range prior {
		if !a.IsRequired {
			continue
		}
		passed, err := s.uaRepo.HasQualifyingCompletion(ctx, tx, userID, a.ID, a.PassingScore())
		if err != nil {
			return false, err
		}
		if !passed {
			return false, nil
		}
	}
	return true, nil
}
