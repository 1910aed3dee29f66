package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/repos"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/dbctx"
	"github.com/eduforge/eduforge-backend/internal/tenancy"
)

// MaxAttempts is how many times a run may be claimed before the queue stops
// retrying it.
const MaxAttempts = 5

// permanentError marks a failure that retrying cannot fix, such as a payload
// referencing an entity that no longer exists.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the worker fails the run without leaving it
// eligible for retry.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Context is the execution handle for a single claimed run. The embedded
// context carries the tenant identity recorded on the row, so everything a
// handler touches through tenant-scoped repos stays inside that tenant.
// Handlers report lifecycle through Progress/Fail/Succeed and never write
// the job_runs row directly.
type Context struct {
	Ctx     context.Context
	DB      *gorm.DB
	Job     *types.JobRun
	Repo    repos.JobRunRepo
	payload map[string]any
}

func NewContext(ctx context.Context, db *gorm.DB, job *types.JobRun, repo repos.JobRunRepo) *Context {
	if job != nil && job.TenantID != uuid.Nil {
		ctx = tenancy.WithTenant(ctx, job.TenantID)
	}
	c := &Context{
		Ctx:  ctx,
		DB:   db,
		Job:  job,
		Repo: repo,
	}
	_ = c.decodePayload()
	return c
}

func (c *Context) decodePayload() error {
	if c.Job == nil {
		return nil
	}
	if len(c.Job.Payload) == 0 {
		c.payload = map[string]any{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Payload, &m); err != nil {
		c.payload = map[string]any{}
		return err
	}
	c.payload = m
	return nil
}

// Payload never returns nil.
func (c *Context) Payload() map[string]any {
	if c.payload == nil {
		c.payload = map[string]any{}
	}
	return c.payload
}

// PayloadUUID reads a payload field and parses it as a UUID.
func (c *Context) PayloadUUID(key string) (uuid.UUID, bool) {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(fmt.Sprint(v))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// PayloadInt reads a payload field as an integer. JSON numbers decode as
// float64, so both forms are accepted.
func (c *Context) PayloadInt(key string) (int, bool) {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

// PayloadTime reads a payload field as an RFC 3339 timestamp.
func (c *Context) PayloadTime(key string) (time.Time, bool) {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, fmt.Sprint(v))
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// Progress persists a non-terminal status update and refreshes the
// heartbeat.
func (c *Context) Progress(stage string, pct int) {
	if c == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	now := time.Now()
	err := c.Repo.UpdateFields(dbctx.Context{Ctx: c.Ctx}, c.Job.ID, map[string]any{
		"stage":        stage,
		"progress":     pct,
		"heartbeat_at": now,
		"updated_at":   now,
	})
	if err != nil {
		return
	}
	c.Job.Stage = stage
	c.Job.Progress = pct
	c.Job.HeartbeatAt = &now
	c.Job.UpdatedAt = now
}

// Fail marks the run failed. A permanent failure has its attempts pinned to
// MaxAttempts so the claim query never picks it up again.
func (c *Context) Fail(stage string, runErr error) {
	if c == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	now := time.Now()
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	updates := map[string]any{
		"status":        types.JobStatusFailed,
		"stage":         stage,
		"error":         msg,
		"last_error_at": now,
		"updated_at":    now,
	}
	if IsPermanent(runErr) {
		updates["attempts"] = MaxAttempts
	}
	if err := c.Repo.UpdateFields(dbctx.Context{Ctx: c.Ctx}, c.Job.ID, updates); err != nil {
		return
	}
	c.Job.Status = types.JobStatusFailed
	c.Job.Stage = stage
	c.Job.Error = msg
	c.Job.LastErrorAt = &now
	c.Job.UpdatedAt = now
	if IsPermanent(runErr) {
		c.Job.Attempts = MaxAttempts
	}
}

// Succeed marks the run done and stores the result document.
func (c *Context) Succeed(finalStage string, result any) {
	if c == nil || c.Job == nil || c.Job.ID == uuid.Nil {
		return
	}
	now := time.Now()
	var res datatypes.JSON
	if result != nil {
		b, err := json.Marshal(result)
		if err == nil {
			res = datatypes.JSON(b)
		}
	}
	err := c.Repo.UpdateFields(dbctx.Context{Ctx: c.Ctx}, c.Job.ID, map[string]any{
		"status":       types.JobStatusSucceeded,
		"stage":        finalStage,
		"progress":     100,
		"error":        "",
		"result":       res,
		"heartbeat_at": now,
		"updated_at":   now,
	})
	if err != nil {
		return
	}
	c.Job.Status = types.JobStatusSucceeded
	c.Job.Stage = finalStage
	c.Job.Progress = 100
	c.Job.Error = ""
	c.Job.Result = res
	c.Job.HeartbeatAt = &now
	c.Job.UpdatedAt = now
}
