package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActivityTypeQuiz       = "quiz"
	ActivityTypeLesson     = "lesson"
	ActivityTypeReading    = "reading"
	ActivityTypeVideo      = "video"
	ActivityTypeAssignment = "assignment"
)

// Activity is a single learning unit inside a course. OrderIndex defines
// sequential unlocking within the course.
type Activity struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID        uuid.UUID      `gorm:"type:uuid;column:tenant_id;not null;index" json:"tenant_id"`
	CourseID        uuid.UUID      `gorm:"type:uuid;column:course_id;not null;index" json:"course_id"`
	Title           string         `gorm:"not null" json:"title"`
	Description     string         `json:"description"`
	Type            string         `gorm:"not null;index" json:"type"`
	Content         datatypes.JSON `gorm:"type:jsonb" json:"content,omitempty"`
	PointsValue     int            `gorm:"column:points_value;not null;default:10" json:"points_value"`
	OrderIndex      int            `gorm:"column:order_index;not null;default:0;index" json:"order_index"`
	DurationMinutes int            `gorm:"column:duration_minutes;not null;default:0" json:"duration_minutes"`
	IsRequired      bool           `gorm:"column:is_required;not null;default:true" json:"is_required"`
	IsActive        bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Activity) TableName() string { return "activities" }

// PassingScore is the minimum qualifying score for this activity type.
// Quiz scores are percentages; every other type records score as a 0/1
// completion flag, so anything >= 1 passes. Inherited behavior, kept
// deliberately un-unified.
func (a *Activity) PassingScore() int {
	if a.Type == ActivityTypeQuiz {
		return 70
	}
	return 1
}
