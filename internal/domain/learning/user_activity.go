package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserActivity records one attempt at an activity. Re-attempts create new
// rows; progression logic reads the latest qualifying completion.
type UserActivity struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID         uuid.UUID      `gorm:"type:uuid;column:tenant_id;not null;index" json:"tenant_id"`
	UserID           uuid.UUID      `gorm:"type:uuid;column:user_id;not null;index:idx_user_activity_user" json:"user_id"`
	ActivityID       uuid.UUID      `gorm:"type:uuid;column:activity_id;not null;index" json:"activity_id"`
	StartedAt        *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt      *time.Time     `gorm:"column:completed_at;index" json:"completed_at,omitempty"`
	Score            int            `gorm:"not null;default:0" json:"score"`
	Attempts         int            `gorm:"not null;default:1" json:"attempts"`
	TimeSpentSeconds *int           `gorm:"column:time_spent_seconds" json:"time_spent_seconds,omitempty"`
	Metadata         datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserActivity) TableName() string { return "user_activities" }
