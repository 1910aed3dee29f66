package tenancy

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrMissingTenantContext is returned whenever a tenant-scoped write is
// attempted without an active tenant. Reads in the same situation fail
// closed (zero rows) instead of erroring; see the scope package.
var ErrMissingTenantContext = errors.New("tenancy: no active tenant in context")

type ctxKey struct{}

// WithTenant returns a context carrying tenantID as the active tenant.
// Passing uuid.Nil is equivalent to Clear.
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	if tenantID == uuid.Nil {
		return Clear(ctx)
	}
	return context.WithValue(ctx, ctxKey{}, tenantID)
}

// Clear returns a context with no active tenant. Subsequent tenant-scoped
// reads return nothing and writes fail with ErrMissingTenantContext.
func Clear(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, uuid.Nil)
}

// TenantID reports the active tenant, if any.
func TenantID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// Require returns the active tenant or ErrMissingTenantContext.
func Require(ctx context.Context) (uuid.UUID, error) {
	id, ok := TenantID(ctx)
	if !ok {
		return uuid.Nil, ErrMissingTenantContext
	}
	return id, nil
}
