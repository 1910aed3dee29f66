package gamification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/repos"
	"github.com/eduforge/eduforge-backend/internal/data/repos/testutil"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/tenancy"
)

func newEvaluatorForTest(t *testing.T) (*BadgeEvaluator, repos.UserBadgeRepo, repos.PointRepo) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	userRepo := repos.NewUserRepo(db, log)
	pointRepo := repos.NewPointRepo(db, log)
	userBadgeRepo := repos.NewUserBadgeRepo(db, log)
	evaluator := NewBadgeEvaluator(log,
		repos.NewBadgeRepo(db, log),
		userBadgeRepo,
		repos.NewUserActivityRepo(db, log),
		repos.NewEnrollmentRepo(db, log),
		NewLedger(log, userRepo, pointRepo),
	)
	return evaluator, userBadgeRepo, pointRepo
}

func seedCatalogBadge(t *testing.T, ctx context.Context, tx *gorm.DB, name, badgeType string, criteria string, pointsValue int) *types.Badge {
	t.Helper()
	tenantID, err := tenancy.Require(ctx)
	if err != nil {
		t.Fatalf("seed badge: %v", err)
	}
	b := &types.Badge{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        name,
		Type:        badgeType,
		Criteria:    datatypes.JSON(criteria),
		PointsValue: pointsValue,
		IsActive:    true,
	}
	if err := tx.Create(b).Error; err != nil {
		t.Fatalf("seed badge: %v", err)
	}
	return b
}

// rejectingUserBadgeRepo fails the insert for one badge with a real
// constraint violation, the way a broken catalog row would.
type rejectingUserBadgeRepo struct {
	repos.UserBadgeRepo
	rejectBadgeID uuid.UUID
}

func (r *rejectingUserBadgeRepo) Grant(ctx context.Context, tx *gorm.DB, ub *types.UserBadge) (bool, error) {
	if ub.BadgeID == r.rejectBadgeID {
		return false, tx.Exec(`INSERT INTO user_badges (id) VALUES (NULL)`).Error
	}
	return r.UserBadgeRepo.Grant(ctx, tx, ub)
}

func TestBadgeGrantFailureDoesNotBlockOthers(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	tx := testutil.Tx(t, db)

	userRepo := repos.NewUserRepo(db, log)
	pointRepo := repos.NewPointRepo(db, log)
	realUserBadges := repos.NewUserBadgeRepo(db, log)

	ctx, _ := testutil.TenantCtx(t)
	u := testutil.SeedUser(t, ctx, tx)
	course := testutil.SeedCourse(t, ctx, tx, 100)
	activity := testutil.SeedActivity(t, ctx, tx, course.ID, types.ActivityTypeLesson, 1, 10)
	testutil.SeedCompletion(t, ctx, tx, u.ID, activity.ID, 90, time.Now().UTC())

	// Explicit created_at puts the failing badge first in catalog order.
	broken := seedCatalogBadge(t, ctx, tx, "Broken Grant", types.BadgeTypeActivityCompletion, `{"activities_completed": 1}`, 10)
	healthy := seedCatalogBadge(t, ctx, tx, "First Steps", types.BadgeTypeActivityCompletion, `{"activities_completed": 1}`, 10)
	if err := tx.Model(&types.Badge{}).Where("id = ?", broken.ID).
		Update("created_at", time.Now().UTC().Add(-2*time.Hour)).Error; err != nil {
		t.Fatalf("backdate badge: %v", err)
	}

	rejecting := &rejectingUserBadgeRepo{UserBadgeRepo: realUserBadges, rejectBadgeID: broken.ID}
	evaluator := NewBadgeEvaluator(log,
		repos.NewBadgeRepo(db, log),
		rejecting,
		repos.NewUserActivityRepo(db, log),
		repos.NewEnrollmentRepo(db, log),
		NewLedger(log, userRepo, pointRepo),
	)

	grants, err := evaluator.EvaluateActivityBadges(ctx, tx, u, activity, 90)
	if err != nil {
		t.Fatalf("EvaluateActivityBadges: %v", err)
	}
	if len(grants) != 1 || grants[0].Badge.ID != healthy.ID {
		t.Fatalf("grants = %v, want only the healthy badge", grants)
	}

	held, err := realUserBadges.Has(ctx, tx, u.ID, healthy.ID)
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !held {
		t.Fatal("healthy badge should survive the earlier failed grant")
	}
	held, err = realUserBadges.Has(ctx, tx, u.ID, broken.ID)
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if held {
		t.Fatal("failed grant must not leave a row behind")
	}
}

func TestEvaluateActivityBadges(t *testing.T) {
	evaluator, userBadgeRepo, _ := newEvaluatorForTest(t)
	tx := testutil.Tx(t, testutil.DB(t))

	ctx, _ := testutil.TenantCtx(t)
	u := testutil.SeedUser(t, ctx, tx)
	course := testutil.SeedCourse(t, ctx, tx, 100)
	activity := testutil.SeedActivity(t, ctx, tx, course.ID, types.ActivityTypeLesson, 1, 10)
	testutil.SeedCompletion(t, ctx, tx, u.ID, activity.ID, 100, time.Now().UTC())

	first := seedCatalogBadge(t, ctx, tx, "First Steps", types.BadgeTypeActivityCompletion, `{"activities_completed": 1}`, 10)
	perfect := seedCatalogBadge(t, ctx, tx, "Perfectionist", types.BadgeTypeScoreAchievement, `{"perfect_score": true}`, 25)
	marathon := seedCatalogBadge(t, ctx, tx, "Marathon", types.BadgeTypeActivityCompletion, `{"activities_completed": 50}`, 100)
	seedCatalogBadge(t, ctx, tx, "Broken", types.BadgeTypeScoreAchievement, `{"min_score": "oops"}`, 5)

	grants, err := evaluator.EvaluateActivityBadges(ctx, tx, u, activity, 100)
	if err != nil {
		t.Fatalf("EvaluateActivityBadges: %v", err)
	}
	if len(grants) != 2 {
		t.Fatalf("got %d grants, want 2", len(grants))
	}
	earned := map[uuid.UUID]bool{}
	for _, g := range grants {
		earned[g.Badge.ID] = true
	}
	if !earned[first.ID] || !earned[perfect.ID] {
		t.Fatalf("wrong badges granted: %v", earned)
	}
	if earned[marathon.ID] {
		t.Fatal("50-activity badge granted after one completion")
	}

	held, err := userBadgeRepo.Has(ctx, tx, u.ID, first.ID)
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !held {
		t.Fatal("granted badge not recorded")
	}
}

func TestEvaluateSkipsHeldBadges(t *testing.T) {
	evaluator, _, pointRepo := newEvaluatorForTest(t)
	tx := testutil.Tx(t, testutil.DB(t))

	ctx, _ := testutil.TenantCtx(t)
	u := testutil.SeedUser(t, ctx, tx)
	course := testutil.SeedCourse(t, ctx, tx, 100)
	activity := testutil.SeedActivity(t, ctx, tx, course.ID, types.ActivityTypeLesson, 1, 10)
	testutil.SeedCompletion(t, ctx, tx, u.ID, activity.ID, 90, time.Now().UTC())

	badge := seedCatalogBadge(t, ctx, tx, "First Steps", types.BadgeTypeActivityCompletion, `{"activities_completed": 1}`, 10)

	grants, err := evaluator.EvaluateActivityBadges(ctx, tx, u, activity, 90)
	if err != nil {
		t.Fatalf("EvaluateActivityBadges: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("got %d grants, want 1", len(grants))
	}

	// Reprocessing the same completion grants nothing and awards no extra points.
	grants, err = evaluator.EvaluateActivityBadges(ctx, tx, u, activity, 90)
	if err != nil {
		t.Fatalf("EvaluateActivityBadges replay: %v", err)
	}
	if len(grants) != 0 {
		t.Fatalf("replay produced %d grants, want 0", len(grants))
	}

	total, err := pointRepo.SumForUser(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("SumForUser: %v", err)
	}
	if total != badge.PointsValue {
		t.Fatalf("total points = %d, want %d", total, badge.PointsValue)
	}
}

func TestCheckLevelAndStreakBadges(t *testing.T) {
	evaluator, _, _ := newEvaluatorForTest(t)
	tx := testutil.Tx(t, testutil.DB(t))

	ctx, _ := testutil.TenantCtx(t)
	u := testutil.SeedUser(t, ctx, tx)

	seedCatalogBadge(t, ctx, tx, "Rising Star", types.BadgeTypeLevel, `{"level": 5}`, 20)
	seedCatalogBadge(t, ctx, tx, "Week Warrior", types.BadgeTypeStreak, `{"streak_days": 7}`, 30)

	grants, err := evaluator.CheckLevelUpBadges(ctx, tx, u, 4)
	if err != nil {
		t.Fatalf("CheckLevelUpBadges: %v", err)
	}
	if len(grants) != 0 {
		t.Fatal("level badge granted below its threshold")
	}
	grants, err = evaluator.CheckLevelUpBadges(ctx, tx, u, 5)
	if err != nil {
		t.Fatalf("CheckLevelUpBadges: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("got %d level grants, want 1", len(grants))
	}

	grants, err = evaluator.CheckStreakBadges(ctx, tx, u, 9)
	if err != nil {
		t.Fatalf("CheckStreakBadges: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("got %d streak grants, want 1", len(grants))
	}
}

func TestAwardWelcomeBadge(t *testing.T) {
	evaluator, _, _ := newEvaluatorForTest(t)
	tx := testutil.Tx(t, testutil.DB(t))

	ctx, _ := testutil.TenantCtx(t)
	u := testutil.SeedUser(t, ctx, tx)

	// No catalog entry configured: a no-op, not an error.
	grant, err := evaluator.AwardWelcomeBadge(ctx, tx, u)
	if err != nil {
		t.Fatalf("AwardWelcomeBadge: %v", err)
	}
	if grant != nil {
		t.Fatal("grant without a catalog entry")
	}

	badge := seedCatalogBadge(t, ctx, tx, WelcomeBadgeName, types.BadgeTypeSpecial, `{}`, 5)
	grant, err = evaluator.AwardWelcomeBadge(ctx, tx, u)
	if err != nil {
		t.Fatalf("AwardWelcomeBadge: %v", err)
	}
	if grant == nil || grant.Badge.ID != badge.ID {
		t.Fatal("welcome badge not granted")
	}

	grant, err = evaluator.AwardWelcomeBadge(ctx, tx, u)
	if err != nil {
		t.Fatalf("AwardWelcomeBadge replay: %v", err)
	}
	if grant != nil {
		t.Fatal("welcome badge granted twice")
	}
}
