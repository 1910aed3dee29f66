package pipeline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/repos"
	"github.com/eduforge/eduforge-backend/internal/data/repos/testutil"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/gamification"
	"github.com/eduforge/eduforge-backend/internal/jobs/runtime"
	"github.com/eduforge/eduforge-backend/internal/pkg/dbctx"
	"github.com/eduforge/eduforge-backend/internal/services"
)

type recordedScore struct {
	UserID uuid.UUID
	Points int
}

type recordingLeaderboard struct {
	scores []recordedScore
}

func (l *recordingLeaderboard) SetScore(_ context.Context, _, userID uuid.UUID, totalPoints int) {
	l.scores = append(l.scores, recordedScore{UserID: userID, Points: totalPoints})
}

func (l *recordingLeaderboard) Top(context.Context, int) ([]services.LeaderboardEntry, error) {
	return nil, nil
}

// newDepsForTest wires the pipelines over the test transaction so every
// handler transaction nests as a savepoint and rolls back with the test.
func newDepsForTest(t *testing.T, tx *gorm.DB) (*Deps, *recordingLeaderboard) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	userRepo := repos.NewUserRepo(db, log)
	pointRepo := repos.NewPointRepo(db, log)
	badgeRepo := repos.NewBadgeRepo(db, log)
	userBadgeRepo := repos.NewUserBadgeRepo(db, log)
	activityRepo := repos.NewActivityRepo(db, log)
	enrollmentRepo := repos.NewEnrollmentRepo(db, log)
	userActivityRepo := repos.NewUserActivityRepo(db, log)

	ledger := gamification.NewLedger(log, userRepo, pointRepo)
	leaderboard := &recordingLeaderboard{}
	deps := &Deps{
		DB:               tx,
		Log:              log,
		UserRepo:         userRepo,
		CourseRepo:       repos.NewCourseRepo(db, log),
		ActivityRepo:     activityRepo,
		EnrollmentRepo:   enrollmentRepo,
		UserActivityRepo: userActivityRepo,
		PointRepo:        pointRepo,
		JobRunRepo:       repos.NewJobRunRepo(db, log),
		Ledger:           ledger,
		Badges:           gamification.NewBadgeEvaluator(log, badgeRepo, userBadgeRepo, userActivityRepo, enrollmentRepo, ledger),
		Streaks:          gamification.NewStreakTracker(log, userRepo, userActivityRepo),
		Progress:         gamification.NewProgressAggregator(log, activityRepo, enrollmentRepo, userActivityRepo),
		Notify:           services.NewBusDispatcher(log, nil),
		Leaderboard:      leaderboard,
	}
	return deps, leaderboard
}

func enqueueCompletionJob(t *testing.T, ctx context.Context, tx *gorm.DB, deps *Deps, tenantID uuid.UUID, u *types.User, activityID uuid.UUID, ua *types.UserActivity, completedAt time.Time) *types.JobRun {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"user_id":            u.ID,
		"activity_id":        activityID,
		"user_activity_id":   ua.ID,
		"score":              ua.Score,
		"time_spent_seconds": 400,
		"completed_at":       completedAt.Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	job := &types.JobRun{
		ID:          uuid.New(),
		TenantID:    tenantID,
		OwnerUserID: u.ID,
		JobType:     types.JobTypeActivityCompletion,
		DedupeKey:   "activity_completion:" + ua.ID.String(),
		Stage:       "queued",
		Payload:     datatypes.JSON(payload),
	}
	if _, err := deps.JobRunRepo.Enqueue(dbctx.Context{Ctx: ctx, Tx: tx}, job); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	return job
}

func TestActivityCompletionRunIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	deps, leaderboard := newDepsForTest(t, tx)

	ctx, tenantID := testutil.TenantCtx(t)
	u := testutil.SeedUser(t, ctx, tx)

	// An established 6-day streak with yesterday's completion in another
	// course, so today's completion reaches the 7-day milestone.
	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1)
	warmup := testutil.SeedCourse(t, ctx, tx, 100)
	warmupActivity := testutil.SeedActivity(t, ctx, tx, warmup.ID, types.ActivityTypeLesson, 1, 10)
	testutil.SeedCompletion(t, ctx, tx, u.ID, warmupActivity.ID, 80, yesterday)
	if err := tx.Model(&types.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"current_streak":     6,
		"longest_streak":     6,
		"last_activity_date": yesterday,
	}).Error; err != nil {
		t.Fatalf("seed streak: %v", err)
	}

	course := testutil.SeedCourse(t, ctx, tx, 100)
	activity := testutil.SeedActivity(t, ctx, tx, course.ID, types.ActivityTypeQuiz, 1, 10)
	if err := tx.Model(&types.Activity{}).Where("id = ?", activity.ID).
		Update("duration_minutes", 10).Error; err != nil {
		t.Fatalf("set duration: %v", err)
	}
	enrollment := testutil.SeedEnrollment(t, ctx, tx, u.ID, course.ID, now.AddDate(0, 0, -2))

	streakBadge := &types.Badge{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        "Week Warrior",
		Type:        types.BadgeTypeStreak,
		Criteria:    datatypes.JSON(`{"streak_days": 7}`),
		PointsValue: 30,
		IsActive:    true,
	}
	if err := tx.Create(streakBadge).Error; err != nil {
		t.Fatalf("seed badge: %v", err)
	}

	// Score 96 in 400s of a 10 minute activity: 10 * 1.5 * 1.2 = 18 points.
	ua := testutil.SeedCompletion(t, ctx, tx, u.ID, activity.ID, 96, now)
	job := enqueueCompletionJob(t, ctx, tx, deps, tenantID, u, activity.ID, ua, now)

	handler := NewActivityCompletion(deps)
	if err := handler.Run(runtime.NewContext(ctx, tx, job, deps.JobRunRepo)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	assertCompletionAwards := func(stage string) {
		entries, err := deps.PointRepo.ListByUser(ctx, tx, u.ID, 0)
		if err != nil {
			t.Fatalf("%s: ListByUser: %v", stage, err)
		}
		activityEntries := 0
		for _, e := range entries {
			if e.SourceType == types.PointSourceActivity && e.SourceID == ua.ID {
				activityEntries++
				if e.Points != 18 {
					t.Fatalf("%s: activity award = %d, want 18", stage, e.Points)
				}
			}
		}
		if activityEntries != 1 {
			t.Fatalf("%s: %d ledger entries for the completion, want 1", stage, activityEntries)
		}

		got, err := deps.UserRepo.GetByID(ctx, tx, u.ID)
		if err != nil {
			t.Fatalf("%s: GetByID: %v", stage, err)
		}
		if got.TotalPoints != 48 {
			t.Fatalf("%s: cached total = %d, want 18 + 30 badge bonus", stage, got.TotalPoints)
		}

		var courseJobs int64
		err = tx.Model(&types.JobRun{}).
			Where("job_type = ? AND dedupe_key = ?", types.JobTypeCourseCompletion, "course_completion:"+enrollment.ID.String()).
			Count(&courseJobs).Error
		if err != nil {
			t.Fatalf("%s: count course jobs: %v", stage, err)
		}
		if courseJobs != 1 {
			t.Fatalf("%s: %d course completion jobs, want 1", stage, courseJobs)
		}
	}
	assertCompletionAwards("first run")

	// The leaderboard write includes the streak badge bonus landed after the
	// level sync.
	if len(leaderboard.scores) != 1 || leaderboard.scores[0].Points != 48 {
		t.Fatalf("leaderboard scores = %v, want one entry of 48", leaderboard.scores)
	}

	// A redelivered job replays without a second award or a second course
	// completion job.
	if err := handler.Run(runtime.NewContext(ctx, tx, job, deps.JobRunRepo)); err != nil {
		t.Fatalf("Run replay: %v", err)
	}
	assertCompletionAwards("replay")
}

func TestSyncLevelNeverLowersCachedLevel(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	deps, _ := newDepsForTest(t, tx)

	ctx, _ := testutil.TenantCtx(t)
	u := testutil.SeedUser(t, ctx, tx)
	if err := tx.Model(&types.User{}).Where("id = ?", u.ID).
		Update("level", 5).Error; err != nil {
		t.Fatalf("inflate level: %v", err)
	}
	u.Level = 5

	// Empty ledger: the computed level is 1 but the award path only moves
	// levels up. Repair is the reconcile job's.
	var notes []notification
	if err := deps.syncLevel(ctx, tx, u, &notes); err != nil {
		t.Fatalf("syncLevel: %v", err)
	}
	if u.Level != 5 {
		t.Fatalf("level = %d, want 5", u.Level)
	}
	if len(notes) != 0 {
		t.Fatalf("queued %d notifications, want 0", len(notes))
	}
	got, err := deps.UserRepo.GetByID(ctx, tx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Level != 5 {
		t.Fatalf("stored level = %d, want 5", got.Level)
	}
}
