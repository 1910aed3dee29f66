package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CourseStatusDraft     = "draft"
	CourseStatusPublished = "published"
	CourseStatusArchived  = "archived"
)

type Course struct {
	ID                  uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID            uuid.UUID `gorm:"type:uuid;column:tenant_id;not null;index" json:"tenant_id"`
	InstructorID        uuid.UUID `gorm:"type:uuid;column:instructor_id;not null;index" json:"instructor_id"`
	Title               string    `gorm:"not null" json:"title"`
	Description         string    `json:"description"`
	Status              string    `gorm:"not null;default:'draft';index" json:"status"`
	PointsPerCompletion int       `gorm:"column:points_per_completion;not null;default:100" json:"points_per_completion"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "courses" }
