package gamification

import (
	"testing"

	"github.com/google/uuid"

	"github.com/eduforge/eduforge-backend/internal/data/repos"
	"github.com/eduforge/eduforge-backend/internal/data/repos/testutil"
	types "github.com/eduforge/eduforge-backend/internal/domain"
)

func newLedgerForTest(t *testing.T) (*Ledger, repos.UserRepo, repos.PointRepo) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	userRepo := repos.NewUserRepo(db, log)
	pointRepo := repos.NewPointRepo(db, log)
	return NewLedger(log, userRepo, pointRepo), userRepo, pointRepo
}

func TestAwardUpdatesCachedTotal(t *testing.T) {
	ledger, userRepo, _ := newLedgerForTest(t)
	tx := testutil.Tx(t, testutil.DB(t))

	ctx, _ := testutil.TenantCtx(t)
	u := testutil.SeedUser(t, ctx, tx)

	_, err := ledger.Award(ctx, tx, u.ID, 40, types.PointTypeEarned, types.PointSourceActivity, uuid.New(), "first")
	if err != nil {
		t.Fatalf("Award: %v", err)
	}
	_, err = ledger.Award(ctx, tx, u.ID, 25, types.PointTypeBonus, types.PointSourceBadge, uuid.New(), "second")
	if err != nil {
		t.Fatalf("Award: %v", err)
	}

	got, err := userRepo.GetByID(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.TotalPoints != 65 {
		t.Fatalf("cached total = %d, want 65", got.TotalPoints)
	}
}

func TestAwardOnceIsIdempotent(t *testing.T) {
	ledger, userRepo, _ := newLedgerForTest(t)
	tx := testutil.Tx(t, testutil.DB(t))

	ctx, _ := testutil.TenantCtx(t)
	u := testutil.SeedUser(t, ctx, tx)
	sourceID := uuid.New()

	_, awarded, err := ledger.AwardOnce(ctx, tx, u.ID, 50, types.PointTypeEarned, types.PointSourceActivity, sourceID, "completion")
	if err != nil {
		t.Fatalf("AwardOnce: %v", err)
	}
	if !awarded {
		t.Fatal("first award should land")
	}

	entry, awarded, err := ledger.AwardOnce(ctx, tx, u.ID, 50, types.PointTypeEarned, types.PointSourceActivity, sourceID, "completion")
	if err != nil {
		t.Fatalf("AwardOnce replay: %v", err)
	}
	if awarded || entry != nil {
		t.Fatal("replayed award must append nothing")
	}

	got, err := userRepo.GetByID(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.TotalPoints != 50 {
		t.Fatalf("cached total = %d, want 50 after replay", got.TotalPoints)
	}
}
