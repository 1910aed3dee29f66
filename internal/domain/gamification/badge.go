package gamification

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	BadgeTypeActivityCompletion = "activity_completion"
	BadgeTypeCourseCompletion   = "course_completion"
	BadgeTypeScoreAchievement   = "score_achievement"
	BadgeTypeStreak             = "streak"
	BadgeTypeLevel              = "level"
	BadgeTypeParticipation      = "participation"
	BadgeTypeSpecial            = "special"
)

// Badge is a tenant-scoped catalog entry with machine-checkable criteria.
type Badge struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID    uuid.UUID      `gorm:"type:uuid;column:tenant_id;not null;index" json:"tenant_id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	Icon        string         `json:"icon"`
	Color       string         `json:"color"`
	Type        string         `gorm:"not null;index" json:"type"`
	Criteria    datatypes.JSON `gorm:"type:jsonb" json:"criteria"`
	PointsValue int            `gorm:"column:points_value;not null;default:0" json:"points_value"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Badge) TableName() string { return "badges" }

// BadgeCriteria is the decoded shape of Badge.Criteria. Absent fields mean
// the criterion does not apply to the badge.
type BadgeCriteria struct {
	ActivitiesCompleted *int     `json:"activities_completed,omitempty"`
	CoursesCompleted    *int     `json:"courses_completed,omitempty"`
	PerfectScore        *bool    `json:"perfect_score,omitempty"`
	MinScore            *int     `json:"min_score,omitempty"`
	AverageScore        *float64 `json:"average_score,omitempty"`
	StreakDays          *int     `json:"streak_days,omitempty"`
	Level               *int     `json:"level,omitempty"`
	EnrollmentsCount    *int     `json:"enrollments_count,omitempty"`
}

func (b *Badge) DecodeCriteria() (BadgeCriteria, error) {
	var c BadgeCriteria
	if len(b.Criteria) == 0 {
		return c, nil
	}
	err := json.Unmarshal(b.Criteria, &c)
	return c, err
}
