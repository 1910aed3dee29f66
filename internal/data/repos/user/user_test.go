package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	userrepo "github.com/eduforge/eduforge-backend/internal/data/repos/user"
	"github.com/eduforge/eduforge-backend/internal/data/repos/testutil"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/tenancy"
)

func TestGetByIDIsTenantScoped(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := userrepo.NewUserRepo(db, testutil.Logger(t))

	ctxA, _ := testutil.TenantCtx(t)
	u := testutil.SeedUser(t, ctxA, tx)

	got, err := repo.GetByID(ctxA, tx, u.ID)
	if err != nil {
		t.Fatalf("GetByID same tenant: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Fatal("expected user visible in own tenant")
	}

	// Same id from another tenant resolves to nothing.
	ctxB, _ := testutil.TenantCtx(t)
	got, err = repo.GetByID(ctxB, tx, u.ID)
	if err != nil {
		t.Fatalf("GetByID other tenant: %v", err)
	}
	if got != nil {
		t.Fatal("user leaked across tenants")
	}

	// No tenant context at all behaves the same way.
	got, err = repo.GetByID(context.Background(), tx, u.ID)
	if err != nil {
		t.Fatalf("GetByID no tenant: %v", err)
	}
	if got != nil {
		t.Fatal("user visible without tenant context")
	}
}

func TestCreateWithoutTenantFailsClosed(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := userrepo.NewUserRepo(db, testutil.Logger(t))

	u := &types.User{
		ID:       uuid.New(),
		Email:    uuid.NewString() + "@example.test",
		Password: "x",
		Name:     "No Tenant",
		Role:     types.RoleStudent,
	}
	err := repo.Create(context.Background(), tx, u)
	if !errors.Is(err, tenancy.ErrMissingTenantContext) {
		t.Fatalf("expected ErrMissingTenantContext, got %v", err)
	}
}

func TestListIDsOnlyOwnTenant(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := userrepo.NewUserRepo(db, testutil.Logger(t))

	ctxA, _ := testutil.TenantCtx(t)
	ctxB, _ := testutil.TenantCtx(t)
	a1 := testutil.SeedUser(t, ctxA, tx)
	a2 := testutil.SeedUser(t, ctxA, tx)
	testutil.SeedUser(t, ctxB, tx)

	ids, err := repo.ListIDs(ctxA, tx)
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ListIDs returned %d ids, want 2", len(ids))
	}
	found := map[uuid.UUID]bool{}
	for _, id := range ids {
		found[id] = true
	}
	if !found[a1.ID] || !found[a2.ID] {
		t.Fatal("ListIDs missing tenant's own users")
	}
}
