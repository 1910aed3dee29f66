package gamification

import (
	"math"
	"time"

	types "github.com/eduforge/eduforge-backend/internal/domain"
)

// MinPassingScore is the score below which an activity completion earns no
// points. Progress aggregation uses the same cutoff.
const MinPassingScore = 70

const defaultActivityPoints = 10
const defaultCoursePoints = 100

// EnrollmentPoints is the flat award for enrolling in a course.
const EnrollmentPoints = 5

// ScoreMultiplier rewards high scores: 1.5x at 95+, 1.3x at 85+, 1.1x at
// 75+, otherwise 1.0.
func ScoreMultiplier(score int) float64 {
	switch {
	case score >= 95:
		return 1.5
	case score >= 85:
		return 1.3
	case score >= 75:
		return 1.1
	default:
		return 1.0
	}
}

// TimeMultiplier rewards finishing under the activity's expected duration
// and penalizes taking more than 1.5x of it. Applied only when both the
// time spent and the expected duration are known.
func TimeMultiplier(timeSpentSeconds, durationMinutes int) float64 {
	if timeSpentSeconds <= 0 || durationMinutes <= 0 {
		return 1.0
	}
	expectedSeconds := float64(durationMinutes * 60)
	efficiency := float64(timeSpentSeconds) / expectedSeconds
	switch {
	case efficiency <= 0.8:
		return 1.2
	case efficiency <= 1.0:
		return 1.1
	case efficiency > 1.5:
		return 0.9
	default:
		return 1.0
	}
}

// ActivityPoints computes the award for a passing activity completion.
// Returns 0 when the score is below MinPassingScore.
func ActivityPoints(activity *types.Activity, score int, timeSpentSeconds *int) int {
	if score < MinPassingScore {
		return 0
	}
	basePoints := activity.PointsValue
	if basePoints <= 0 {
		basePoints = defaultActivityPoints
	}
	timeMult := 1.0
	if timeSpentSeconds != nil {
		timeMult = TimeMultiplier(*timeSpentSeconds, activity.DurationMinutes)
	}
	return int(math.Round(float64(basePoints) * ScoreMultiplier(score) * timeMult))
}

// CourseSpeedBonus is the flat bonus for finishing a course quickly after
// enrolling: +50 within 7 days, +30 within 14, +15 within 21.
func CourseSpeedBonus(completionDays int) int {
	switch {
	case completionDays <= 7:
		return 50
	case completionDays <= 14:
		return 30
	case completionDays <= 21:
		return 15
	default:
		return 0
	}
}

// CoursePoints computes the course-completion award: the course's configured
// reward plus the speed bonus.
func CoursePoints(course *types.Course, enrolledAt, completedAt time.Time) int {
	basePoints := course.PointsPerCompletion
	if basePoints <= 0 {
		basePoints = defaultCoursePoints
	}
	return basePoints + CourseSpeedBonus(CompletionDays(enrolledAt, completedAt))
}

// CompletionDays is the whole number of days between enrollment and
// completion, never negative.
func CompletionDays(enrolledAt, completedAt time.Time) int {
	if completedAt.Before(enrolledAt) {
		return 0
	}
	return int(completedAt.Sub(enrolledAt).Hours() / 24)
}
