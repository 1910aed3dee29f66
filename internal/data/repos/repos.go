package repos

import (
	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/repos/gamification"
	"github.com/eduforge/eduforge-backend/internal/data/repos/jobs"
	"github.com/eduforge/eduforge-backend/internal/data/repos/learning"
	"github.com/eduforge/eduforge-backend/internal/data/repos/user"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
)

type UserRepo = user.UserRepo

type CourseRepo = learning.CourseRepo
type ActivityRepo = learning.ActivityRepo
type EnrollmentRepo = learning.EnrollmentRepo
type UserActivityRepo = learning.UserActivityRepo

type PointRepo = gamification.PointRepo
type BadgeRepo = gamification.BadgeRepo
type UserBadgeRepo = gamification.UserBadgeRepo

type JobRunRepo = jobs.JobRunRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return learning.NewCourseRepo(db, baseLog)
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return learning.NewActivityRepo(db, baseLog)
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return learning.NewEnrollmentRepo(db, baseLog)
}

func NewUserActivityRepo(db *gorm.DB, baseLog *logger.Logger) UserActivityRepo {
	return learning.NewUserActivityRepo(db, baseLog)
}

func NewPointRepo(db *gorm.DB, baseLog *logger.Logger) PointRepo {
	return gamification.NewPointRepo(db, baseLog)
}

func NewBadgeRepo(db *gorm.DB, baseLog *logger.Logger) BadgeRepo {
	return gamification.NewBadgeRepo(db, baseLog)
}

func NewUserBadgeRepo(db *gorm.DB, baseLog *logger.Logger) UserBadgeRepo {
	return gamification.NewUserBadgeRepo(db, baseLog)
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}
