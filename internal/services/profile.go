package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/eduforge/eduforge-backend/internal/data/repos"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/gamification"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
)

// GamificationProfile is the read model for a user's standing: cached
// counters, the level breakdown and earned badges.
type GamificationProfile struct {
	UserID        uuid.UUID              `json:"user_id"`
	TotalPoints   int                    `json:"total_points"`
	Level         gamification.LevelInfo `json:"level"`
	CurrentStreak int                    `json:"current_streak"`
	LongestStreak int                    `json:"longest_streak"`
	Badges        []*types.UserBadge     `json:"badges"`
}

type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*GamificationProfile, error)
	PointsHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Point, error)
	CourseProgress(ctx context.Context, userID, courseID uuid.UUID) (*types.CourseEnrollment, error)
}

type profileService struct {
	log            *logger.Logger
	userRepo       repos.UserRepo
	pointRepo      repos.PointRepo
	userBadgeRepo  repos.UserBadgeRepo
	enrollmentRepo repos.EnrollmentRepo
}

func NewProfileService(
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	pointRepo repos.PointRepo,
	userBadgeRepo repos.UserBadgeRepo,
	enrollmentRepo repos.EnrollmentRepo,
) ProfileService {
	return &profileService{
		log:            baseLog.With("service", "ProfileService"),
		userRepo:       userRepo,
		pointRepo:      pointRepo,
		userBadgeRepo:  userBadgeRepo,
		enrollmentRepo: enrollmentRepo,
	}
}

func (s *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*GamificationProfile, error) {
	u, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	badges, err := s.userBadgeRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	return &GamificationProfile{
		UserID:        u.ID,
		TotalPoints:   u.TotalPoints,
		Level:         gamification.ComputeLevelInfo(u.TotalPoints),
		CurrentStreak: u.CurrentStreak,
		LongestStreak: u.LongestStreak,
		Badges:        badges,
	}, nil
}

func (s *profileService) PointsHistory(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Point, error) {
	return s.pointRepo.ListByUser(ctx, nil, userID, limit)
}

func (s *profileService) CourseProgress(ctx context.Context, userID, courseID uuid.UUID) (*types.CourseEnrollment, error) {
	return s.enrollmentRepo.GetByUserAndCourse(ctx, nil, userID, courseID)
}
