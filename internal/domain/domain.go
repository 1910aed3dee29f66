package domain

import (
	"github.com/eduforge/eduforge-backend/internal/domain/gamification"
	"github.com/eduforge/eduforge-backend/internal/domain/jobs"
	"github.com/eduforge/eduforge-backend/internal/domain/learning"
	"github.com/eduforge/eduforge-backend/internal/domain/tenant"
	"github.com/eduforge/eduforge-backend/internal/domain/user"
)

type Tenant = tenant.Tenant

type User = user.User

const (
	RoleStudent    = user.RoleStudent
	RoleInstructor = user.RoleInstructor
	RoleAdmin      = user.RoleAdmin
)

type Course = learning.Course
type Activity = learning.Activity
type CourseEnrollment = learning.CourseEnrollment
type UserActivity = learning.UserActivity

const (
	CourseStatusDraft     = learning.CourseStatusDraft
	CourseStatusPublished = learning.CourseStatusPublished
	CourseStatusArchived  = learning.CourseStatusArchived

	ActivityTypeQuiz       = learning.ActivityTypeQuiz
	ActivityTypeLesson     = learning.ActivityTypeLesson
	ActivityTypeReading    = learning.ActivityTypeReading
	ActivityTypeVideo      = learning.ActivityTypeVideo
	ActivityTypeAssignment = learning.ActivityTypeAssignment
)

type Point = gamification.Point
type UserTotal = gamification.UserTotal
type Badge = gamification.Badge
type BadgeCriteria = gamification.BadgeCriteria
type UserBadge = gamification.UserBadge

const (
	PointTypeEarned  = gamification.PointTypeEarned
	PointTypeSpent   = gamification.PointTypeSpent
	PointTypeBonus   = gamification.PointTypeBonus
	PointTypePenalty = gamification.PointTypePenalty

	PointSourceActivity   = gamification.PointSourceActivity
	PointSourceCourse     = gamification.PointSourceCourse
	PointSourceBadge      = gamification.PointSourceBadge
	PointSourceEnrollment = gamification.PointSourceEnrollment

	BadgeTypeActivityCompletion = gamification.BadgeTypeActivityCompletion
	BadgeTypeCourseCompletion   = gamification.BadgeTypeCourseCompletion
	BadgeTypeScoreAchievement   = gamification.BadgeTypeScoreAchievement
	BadgeTypeStreak             = gamification.BadgeTypeStreak
	BadgeTypeLevel              = gamification.BadgeTypeLevel
	BadgeTypeParticipation      = gamification.BadgeTypeParticipation
	BadgeTypeSpecial            = gamification.BadgeTypeSpecial
)

type JobRun = jobs.JobRun

const (
	JobStatusQueued    = jobs.JobStatusQueued
	JobStatusRunning   = jobs.JobStatusRunning
	JobStatusSucceeded = jobs.JobStatusSucceeded
	JobStatusFailed    = jobs.JobStatusFailed

	JobTypeActivityCompletion = jobs.JobTypeActivityCompletion
	JobTypeCourseCompletion   = jobs.JobTypeCourseCompletion
	JobTypeReconcile          = jobs.JobTypeReconcile
)
