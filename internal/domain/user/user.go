package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// User belongs to exactly one tenant. A nil TenantID marks a platform
// operator, which is never a gamification subject.
//
// TotalPoints, Level and the streak fields are derived caches. They are
// written only by the ledger, level and streak services so they stay
// reconcilable from the points table and completion history.
type User struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID         *uuid.UUID `gorm:"type:uuid;column:tenant_id;index" json:"tenant_id,omitempty"`
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	Password         string     `gorm:"not null" json:"-"`
	Name             string     `gorm:"not null" json:"name"`
	Role             string     `gorm:"not null;default:'student';index" json:"role"`
	TotalPoints      int        `gorm:"column:total_points;not null;default:0" json:"total_points"`
	Level            int        `gorm:"not null;default:1" json:"level"`
	CurrentStreak    int        `gorm:"column:current_streak;not null;default:0" json:"current_streak"`
	LongestStreak    int        `gorm:"column:longest_streak;not null;default:0" json:"longest_streak"`
	LastActivityDate *time.Time `gorm:"column:last_activity_date" json:"last_activity_date,omitempty"`
	LastLoginAt      *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) IsStudent() bool    { return u.Role == RoleStudent }
func (u *User) IsInstructor() bool { return u.Role == RoleInstructor }
func (u *User) IsAdmin() bool      { return u.Role == RoleAdmin }
