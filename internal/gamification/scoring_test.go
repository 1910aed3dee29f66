package gamification

import (
	"testing"
	"time"

	types "github.com/eduforge/eduforge-backend/internal/domain"
)

func TestScoreMultiplier(t *testing.T) {
	cases := []struct {
		score int
		want  float64
	}{
		{100, 1.5},
		{95, 1.5},
		{94, 1.3},
		{85, 1.3},
		{84, 1.1},
		{75, 1.1},
		{74, 1.0},
		{0, 1.0},
	}
	for _, c := range cases {
		if got := ScoreMultiplier(c.score); got != c.want {
			t.Errorf("ScoreMultiplier(%d) = %v, want %v", c.score, got, c.want)
		}
	}
}

func TestTimeMultiplier(t *testing.T) {
	cases := []struct {
		name            string
		timeSpent       int
		durationMinutes int
		want            float64
	}{
		{"fast", 400, 10, 1.2},       // 400s of 600s expected
		{"on time", 590, 10, 1.1},    // just under expected
		{"exact", 600, 10, 1.1},      // efficiency exactly 1.0
		{"slightly over", 700, 10, 1.0},
		{"slow", 1000, 10, 0.9},      // over 1.5x expected
		{"no duration", 400, 0, 1.0},
		{"no time spent", 0, 10, 1.0},
	}
	for _, c := range cases {
		if got := TimeMultiplier(c.timeSpent, c.durationMinutes); got != c.want {
			t.Errorf("%s: TimeMultiplier(%d, %d) = %v, want %v", c.name, c.timeSpent, c.durationMinutes, got, c.want)
		}
	}
}

func TestActivityPoints(t *testing.T) {
	activity := &types.Activity{PointsValue: 10, DurationMinutes: 10}

	// 10 base * 1.5 (score 96) * 1.2 (400s of 600s expected) = 18.
	spent := 400
	if got := ActivityPoints(activity, 96, &spent); got != 18 {
		t.Fatalf("ActivityPoints(score=96, 400s) = %d, want 18", got)
	}
}

func TestActivityPointsBelowPassing(t *testing.T) {
	activity := &types.Activity{PointsValue: 10, DurationMinutes: 10}
	if got := ActivityPoints(activity, 60, nil); got != 0 {
		t.Fatalf("ActivityPoints(score=60) = %d, want 0", got)
	}
	if got := ActivityPoints(activity, 69, nil); got != 0 {
		t.Fatalf("ActivityPoints(score=69) = %d, want 0", got)
	}
}

func TestActivityPointsDefaults(t *testing.T) {
	// Zero-value PointsValue falls back to 10; no time spent means no time
	// multiplier.
	activity := &types.Activity{DurationMinutes: 10}
	if got := ActivityPoints(activity, 70, nil); got != 10 {
		t.Fatalf("ActivityPoints(defaults, score=70) = %d, want 10", got)
	}
}

func TestActivityPointsRounding(t *testing.T) {
	// 10 * 1.1 * 1.1 = 12.1 rounds to 12; 10 * 1.3 * 1.1 = 14.3 rounds to 14.
	activity := &types.Activity{PointsValue: 10, DurationMinutes: 10}
	spent := 500
	if got := ActivityPoints(activity, 75, &spent); got != 12 {
		t.Fatalf("ActivityPoints(score=75, 500s) = %d, want 12", got)
	}
	if got := ActivityPoints(activity, 85, &spent); got != 14 {
		t.Fatalf("ActivityPoints(score=85, 500s) = %d, want 14", got)
	}
}

func TestCourseSpeedBonus(t *testing.T) {
	cases := []struct {
		days int
		want int
	}{
		{0, 50},
		{7, 50},
		{8, 30},
		{14, 30},
		{15, 15},
		{21, 15},
		{22, 0},
		{100, 0},
	}
	for _, c := range cases {
		if got := CourseSpeedBonus(c.days); got != c.want {
			t.Errorf("CourseSpeedBonus(%d) = %d, want %d", c.days, got, c.want)
		}
	}
}

func TestCoursePoints(t *testing.T) {
	course := &types.Course{PointsPerCompletion: 100}
	enrolledAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// Completed 5 days later: 100 base + 50 speed bonus.
	completedAt := enrolledAt.AddDate(0, 0, 5)
	if got := CoursePoints(course, enrolledAt, completedAt); got != 150 {
		t.Fatalf("CoursePoints(5 days) = %d, want 150", got)
	}

	// Completed 30 days later: base only.
	completedAt = enrolledAt.AddDate(0, 0, 30)
	if got := CoursePoints(course, enrolledAt, completedAt); got != 100 {
		t.Fatalf("CoursePoints(30 days) = %d, want 100", got)
	}
}

func TestCoursePointsDefaultBase(t *testing.T) {
	course := &types.Course{}
	enrolledAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	completedAt := enrolledAt.AddDate(0, 0, 30)
	if got := CoursePoints(course, enrolledAt, completedAt); got != 100 {
		t.Fatalf("CoursePoints(zero config) = %d, want 100", got)
	}
}

func TestCompletionDays(t *testing.T) {
	enrolledAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if got := CompletionDays(enrolledAt, enrolledAt.Add(12*time.Hour)); got != 0 {
		t.Fatalf("CompletionDays(12h) = %d, want 0", got)
	}
	if got := CompletionDays(enrolledAt, enrolledAt.AddDate(0, 0, 7)); got != 7 {
		t.Fatalf("CompletionDays(7d) = %d, want 7", got)
	}
	// Clock skew never yields a negative day count.
	if got := CompletionDays(enrolledAt, enrolledAt.Add(-time.Hour)); got != 0 {
		t.Fatalf("CompletionDays(negative) = %d, want 0", got)
	}
}
