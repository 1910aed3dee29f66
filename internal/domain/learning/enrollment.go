package learning

import (
	"time"

	"github.com/google/uuid"
)

// CourseEnrollment pairs a user with a course. CompletedAt is set exactly
// once by the progress aggregator and never cleared.
type CourseEnrollment struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID           uuid.UUID  `gorm:"type:uuid;column:tenant_id;not null;index" json:"tenant_id"`
	UserID             uuid.UUID  `gorm:"type:uuid;column:user_id;not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID           uuid.UUID  `gorm:"type:uuid;column:course_id;not null;uniqueIndex:idx_enrollment_user_course" json:"course_id"`
	EnrolledAt         time.Time  `gorm:"column:enrolled_at;not null;default:now()" json:"enrolled_at"`
	CompletedAt        *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	ProgressPercentage float64    `gorm:"column:progress_percentage;not null;default:0" json:"progress_percentage"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (CourseEnrollment) TableName() string { return "course_enrollments" }
