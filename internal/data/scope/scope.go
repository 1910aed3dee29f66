package scope

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/tenancy"
)

// Scoped narrows tx to rows owned by the active tenant. With no active
// tenant the returned handle matches nothing: reads fail closed instead of
// falling back to unscoped data. Every tenant-owned repo query funnels
// through here so the isolation rule lives in one place.
func Scoped(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if id, ok := tenancy.TenantID(ctx); ok {
		return tx.Where("tenant_id = ?", id)
	}
	return tx.Where("1 = 0")
}

// ScopedTable is Scoped with a table-qualified column, for queries that
// join tenant-owned tables and would otherwise be ambiguous.
func ScopedTable(ctx context.Context, tx *gorm.DB, table string) *gorm.DB {
	if id, ok := tenancy.TenantID(ctx); ok {
		return tx.Where(table+".tenant_id = ?", id)
	}
	return tx.Where("1 = 0")
}

// TenantFor returns the tenant id to stamp on a new tenant-owned row, or
// tenancy.ErrMissingTenantContext when no tenant is active. Creates never
// default to an unscoped insert.
func TenantFor(ctx context.Context) (uuid.UUID, error) {
	return tenancy.Require(ctx)
}
