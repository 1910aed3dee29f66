package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

// Gamification job types.
const (
	JobTypeActivityCompletion = "gamification_activity_completion"
	JobTypeCourseCompletion   = "gamification_course_completion"
	JobTypeReconcile          = "gamification_reconcile"
)

// JobRun is one independently schedulable unit of work. TenantID is
// persisted with the row so workers can re-establish tenant context without
// inheriting anything from the enqueuing request.
type JobRun struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID    uuid.UUID      `gorm:"type:uuid;column:tenant_id;not null;index" json:"tenant_id"`
	OwnerUserID uuid.UUID      `gorm:"type:uuid;column:owner_user_id;not null;index" json:"owner_user_id"`
	JobType     string         `gorm:"column:job_type;not null;index" json:"job_type"`
	EntityType  string         `gorm:"column:entity_type;index" json:"entity_type,omitempty"`
	EntityID    *uuid.UUID     `gorm:"type:uuid;column:entity_id;index" json:"entity_id,omitempty"`
	DedupeKey   string         `gorm:"column:dedupe_key;uniqueIndex" json:"dedupe_key,omitempty"`
	Status      string         `gorm:"not null;index" json:"status"`
	Stage       string         `gorm:"not null" json:"stage"`
	Progress    int            `gorm:"not null;default:0" json:"progress"`
	Attempts    int            `gorm:"not null;default:0" json:"attempts"`
	Error       string         `json:"error,omitempty"`
	HeartbeatAt *time.Time     `gorm:"column:heartbeat_at;index" json:"heartbeat_at,omitempty"`
	LastErrorAt *time.Time     `gorm:"column:last_error_at;index" json:"last_error_at,omitempty"`
	Payload     datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	Result      datatypes.JSON `gorm:"type:jsonb" json:"result"`
	CreatedAt   time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (JobRun) TableName() string { return "job_runs" }
