package gamification

import (
	"testing"
	"time"

	"github.com/eduforge/eduforge-backend/internal/data/repos"
	"github.com/eduforge/eduforge-backend/internal/data/repos/testutil"
	types "github.com/eduforge/eduforge-backend/internal/domain"
)

func TestRecomputeProgressAndCompletion(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	tx := testutil.Tx(t, db)

	activityRepo := repos.NewActivityRepo(db, log)
	enrollmentRepo := repos.NewEnrollmentRepo(db, log)
	uaRepo := repos.NewUserActivityRepo(db, log)
	aggregator := NewProgressAggregator(log, activityRepo, enrollmentRepo, uaRepo)

	ctx, _ := testutil.TenantCtx(t)
	u := testutil.SeedUser(t, ctx, tx)
	course := testutil.SeedCourse(t, ctx, tx, 100)
	a1 := testutil.SeedActivity(t, ctx, tx, course.ID, types.ActivityTypeLesson, 1, 10)
	a2 := testutil.SeedActivity(t, ctx, tx, course.ID, types.ActivityTypeQuiz, 2, 10)
	testutil.SeedEnrollment(t, ctx, tx, u.ID, course.ID, time.Now().UTC().AddDate(0, 0, -2))

	now := time.Now().UTC()

	// One of two activities passed: 50 percent, not completed.
	testutil.SeedCompletion(t, ctx, tx, u.ID, a1.ID, 85, now)
	res, err := aggregator.Recompute(ctx, tx, u, course, now)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if res.Percentage != 50 {
		t.Fatalf("percentage = %v, want 50", res.Percentage)
	}
	if res.JustCompleted {
		t.Fatal("course must not complete at 50 percent")
	}

	// A failing score does not move progress.
	testutil.SeedCompletion(t, ctx, tx, u.ID, a2.ID, 60, now)
	res, err = aggregator.Recompute(ctx, tx, u, course, now)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if res.Percentage != 50 {
		t.Fatalf("percentage after failing score = %v, want 50", res.Percentage)
	}

	// Passing the second activity completes the course exactly once.
	testutil.SeedCompletion(t, ctx, tx, u.ID, a2.ID, 75, now)
	res, err = aggregator.Recompute(ctx, tx, u, course, now)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if res.Percentage != 100 {
		t.Fatalf("percentage = %v, want 100", res.Percentage)
	}
	if !res.JustCompleted {
		t.Fatal("completion transition should fire")
	}

	res, err = aggregator.Recompute(ctx, tx, u, course, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Recompute replay: %v", err)
	}
	if res.JustCompleted {
		t.Fatal("completion transition fired twice")
	}
}

func TestRecomputeWithoutEnrollment(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	tx := testutil.Tx(t, db)

	aggregator := NewProgressAggregator(log,
		repos.NewActivityRepo(db, log),
		repos.NewEnrollmentRepo(db, log),
		repos.NewUserActivityRepo(db, log),
	)

	ctx, _ := testutil.TenantCtx(t)
	u := testutil.SeedUser(t, ctx, tx)
	course := testutil.SeedCourse(t, ctx, tx, 100)

	res, err := aggregator.Recompute(ctx, tx, u, course, time.Now().UTC())
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if res.Enrollment != nil || res.JustCompleted {
		t.Fatal("unenrolled user should produce an empty result")
	}
}
