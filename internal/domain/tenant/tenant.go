package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is created by provisioning and is read-only for the gamification
// core. Quota fields are enforced at provisioning time, not here.
type Tenant struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name         string     `gorm:"not null" json:"name"`
	Slug         string     `gorm:"uniqueIndex;not null" json:"slug"`
	PlanTier     string     `gorm:"column:plan_tier;not null;default:'basic'" json:"plan_tier"`
	MaxUsers     int        `gorm:"column:max_users;not null;default:50" json:"max_users"`
	MaxCourses   int        `gorm:"column:max_courses;not null;default:20" json:"max_courses"`
	MaxStorageMB int        `gorm:"column:max_storage_mb;not null;default:1024" json:"max_storage_mb"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true" json:"is_active"`
	TrialEndsAt  *time.Time `gorm:"column:trial_ends_at" json:"trial_ends_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Tenant) TableName() string { return "tenants" }
