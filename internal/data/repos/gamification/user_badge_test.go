package gamification_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	gamrepo "github.com/eduforge/eduforge-backend/internal/data/repos/gamification"
	"github.com/eduforge/eduforge-backend/internal/data/repos/testutil"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/tenancy"
)

func seedBadge(t *testing.T, ctx context.Context, tx *gorm.DB, pointsValue int) *types.Badge {
	t.Helper()
	tenantID, err := tenancy.Require(ctx)
	if err != nil {
		t.Fatalf("seed badge: %v", err)
	}
	b := &types.Badge{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        "Badge " + uuid.NewString()[:8],
		Type:        types.BadgeTypeParticipation,
		PointsValue: pointsValue,
		IsActive:    true,
	}
	if err := tx.Create(b).Error; err != nil {
		t.Fatalf("seed badge: %v", err)
	}
	return b
}

func TestGrantIsAtMostOnce(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := gamrepo.NewUserBadgeRepo(db, testutil.Logger(t))

	ctx, tenantID := testutil.TenantCtx(t)
	u := testutil.SeedUser(t, ctx, tx)
	badge := seedBadge(t, ctx, tx, 25)

	first := &types.UserBadge{
		ID:       uuid.New(),
		TenantID: tenantID,
		UserID:   u.ID,
		BadgeID:  badge.ID,
		EarnedAt: time.Now().UTC(),
	}
	created, err := repo.Grant(ctx, tx, first)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if !created {
		t.Fatal("first grant should create")
	}

	replay := &types.UserBadge{
		ID:       uuid.New(),
		TenantID: tenantID,
		UserID:   u.ID,
		BadgeID:  badge.ID,
		EarnedAt: time.Now().UTC(),
	}
	created, err = repo.Grant(ctx, tx, replay)
	if err != nil {
		t.Fatalf("Grant replay: %v", err)
	}
	if created {
		t.Fatal("replayed grant must not create a second row")
	}

	has, err := repo.Has(ctx, tx, u.ID, badge.ID)
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !has {
		t.Fatal("badge should be held after grant")
	}
}
