package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/repos"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/gamification"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
	"github.com/eduforge/eduforge-backend/internal/tenancy"
)

// EnrollmentService creates enrollments and applies their gamification side
// effects synchronously: the flat enrollment award, participation badges
// and, on a user's very first enrollment, the welcome badge.
type EnrollmentService interface {
	Enroll(ctx context.Context, userID, courseID uuid.UUID) (*types.CourseEnrollment, error)
}

type enrollmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	userRepo       repos.UserRepo
	courseRepo     repos.CourseRepo
	enrollmentRepo repos.EnrollmentRepo
	ledger         *gamification.Ledger
	badges         *gamification.BadgeEvaluator
	notify         NotificationDispatcher
}

func NewEnrollmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	courseRepo repos.CourseRepo,
	enrollmentRepo repos.EnrollmentRepo,
	ledger *gamification.Ledger,
	badges *gamification.BadgeEvaluator,
	notify NotificationDispatcher,
) EnrollmentService {
	return &enrollmentService{
		db:             db,
		log:            baseLog.With("service", "EnrollmentService"),
		userRepo:       userRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		ledger:         ledger,
		badges:         badges,
		notify:         notify,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, userID, courseID uuid.UUID) (*types.CourseEnrollment, error) {
	tenantID, err := tenancy.Require(ctx)
	if err != nil {
		return nil, err
	}

	var (
		enrollment *types.CourseEnrollment
		grants     []gamification.BadgeGrant
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := s.userRepo.GetByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return ErrUserNotFound
		}
		course, err := s.courseRepo.GetByID(ctx, tx, courseID)
		if err != nil {
			return err
		}
		if course == nil {
			return ErrCourseNotFound
		}
		if course.Status != types.CourseStatusPublished {
			return ErrCourseUnavailable
		}
		existing, err := s.enrollmentRepo.GetByUserAndCourse(ctx, tx, userID, courseID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyEnrolled
		}

		priorEnrollments, err := s.enrollmentRepo.CountByUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		enrollment = &types.CourseEnrollment{
			ID:         uuid.New(),
			TenantID:   tenantID,
			UserID:     userID,
			CourseID:   courseID,
			EnrolledAt: time.Now().UTC(),
		}
		if err := s.enrollmentRepo.Create(ctx, tx, enrollment); err != nil {
			return err
		}

		_, _, err = s.ledger.AwardOnce(ctx, tx, userID, gamification.EnrollmentPoints,
			types.PointTypeEarned, types.PointSourceEnrollment, enrollment.ID,
			"Enrolled in course: "+course.Title)
		if err != nil {
			return err
		}

		grants, err = s.badges.EvaluateEnrollmentBadges(ctx, tx, u, course)
		if err != nil {
			return err
		}
		if priorEnrollments == 0 {
			welcome, err := s.badges.AwardWelcomeBadge(ctx, tx, u)
			if err != nil {
				return err
			}
			if welcome != nil {
				grants = append(grants, *welcome)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, g := range grants {
		s.notify.BadgeEarned(ctx, tenantID, userID, g.Badge)
	}
	s.log.Info("User enrolled",
		"user_id", userID,
		"course_id", courseID,
		"badges_earned", len(grants),
	)
	return enrollment, nil
}
