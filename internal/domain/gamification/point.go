package gamification

import (
	"time"

	"github.com/google/uuid"
)

const (
	PointTypeEarned  = "earned"
	PointTypeSpent   = "spent"
	PointTypeBonus   = "bonus"
	PointTypePenalty = "penalty"
)

// Point source kinds identify the entity that triggered a ledger entry.
const (
	PointSourceActivity   = "activity"
	PointSourceCourse     = "course"
	PointSourceBadge      = "badge"
	PointSourceEnrollment = "enrollment"
)

// Point is an immutable ledger entry. Rows are only ever appended; a user's
// total is the sum over their entries.
type Point struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID    uuid.UUID `gorm:"type:uuid;column:tenant_id;not null;index" json:"tenant_id"`
	UserID      uuid.UUID `gorm:"type:uuid;column:user_id;not null;index:idx_points_user" json:"user_id"`
	Points      int       `gorm:"not null" json:"points"`
	Type        string    `gorm:"not null;default:'earned';index" json:"type"`
	SourceType  string    `gorm:"column:source_type;not null;index:idx_points_source" json:"source_type"`
	SourceID    uuid.UUID `gorm:"type:uuid;column:source_id;not null;index:idx_points_source" json:"source_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (Point) TableName() string { return "points" }

// UserTotal is one leaderboard row projected from the ledger.
type UserTotal struct {
	UserID      uuid.UUID `gorm:"column:user_id" json:"user_id"`
	TotalPoints int       `gorm:"column:total_points" json:"total_points"`
}

// Signed returns the entry's contribution to the user's total.
func (p *Point) Signed() int {
	switch p.Type {
	case PointTypeSpent, PointTypePenalty:
		return -p.Points
	default:
		return p.Points
	}
}
