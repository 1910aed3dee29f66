package gamification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserBadge is a grant record. The (user_id, badge_id) unique index is what
// makes non-repeatable grants idempotent under retries.
type UserBadge struct {
	ID       uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID uuid.UUID      `gorm:"type:uuid;column:tenant_id;not null;index" json:"tenant_id"`
	UserID   uuid.UUID      `gorm:"type:uuid;column:user_id;not null;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeID  uuid.UUID      `gorm:"type:uuid;column:badge_id;not null;uniqueIndex:idx_user_badge" json:"badge_id"`
	EarnedAt time.Time      `gorm:"column:earned_at;not null;default:now()" json:"earned_at"`
	Metadata datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserBadge) TableName() string { return "user_badges" }
