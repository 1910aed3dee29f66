package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/gamification"
	"github.com/eduforge/eduforge-backend/internal/jobs/runtime"
)

const reconcileParallelism = 4

// Reconcile rebuilds the cached total_points, level and streak columns from
// the ledger and the completion history. The caches are derived data; this
// job is the repair path when they drift, and it can always be re-run.
type Reconcile struct {
	deps *Deps
}

func NewReconcile(deps *Deps) *Reconcile {
	return &Reconcile{deps: deps}
}

func (p *Reconcile) Type() string { return types.JobTypeReconcile }

func (p *Reconcile) Run(jc *runtime.Context) error {
	ctx := jc.Ctx
	d := p.deps

	var userIDs []uuid.UUID
	if id, ok := jc.PayloadUUID("user_id"); ok {
		userIDs = []uuid.UUID{id}
	} else {
		ids, err := d.UserRepo.ListIDs(ctx, nil)
		if err != nil {
			return err
		}
		userIDs = ids
	}
	jc.Progress("listed", 10)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileParallelism)
	for _, id := range userIDs {
		userID := id
		g.Go(func() error {
			if err := p.reconcileUser(gctx, userID); err != nil {
				return fmt.Errorf("reconcile user %s: %w", userID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	jc.Succeed("done", map[string]any{"users_reconciled": len(userIDs)})
	return nil
}

func (p *Reconcile) reconcileUser(ctx context.Context, userID uuid.UUID) error {
	d := p.deps
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := d.UserRepo.GetByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return nil
		}

		total, err := d.PointRepo.SumForUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if total != u.TotalPoints {
			if err := d.UserRepo.UpdatePointsCache(ctx, tx, userID, total); err != nil {
				return err
			}
			d.Log.Warn("Points cache drift repaired",
				"user_id", userID,
				"cached", u.TotalPoints,
				"actual", total,
			)
		}

		level := gamification.LevelForPoints(total)
		if level != u.Level {
			if err := d.UserRepo.UpdateLevel(ctx, tx, userID, level); err != nil {
				return err
			}
		}

		completions, err := d.UserActivityRepo.ListCompletedByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		current, longest, last := replayStreak(completions, time.Now().UTC())
		if last != nil && (current != u.CurrentStreak || longest != u.LongestStreak) {
			if err := d.UserRepo.UpdateStreak(ctx, tx, userID, current, longest, *last); err != nil {
				return err
			}
		}
		return nil
	})
}

// replayStreak recomputes streaks from the full completion history. The
// current streak is the consecutive-day run ending today or yesterday; a
// run that ended earlier has already broken, so current is 0.
func replayStreak(completions []*types.UserActivity, now time.Time) (current, longest int, last *time.Time) {
	var days []string
	seen := map[string]bool{}
	for _, c := range completions {
		if c.CompletedAt == nil {
			continue
		}
		day := c.CompletedAt.Format("2006-01-02")
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
		if last == nil || c.CompletedAt.After(*last) {
			ts := *c.CompletedAt
			last = &ts
		}
	}
	if len(days) == 0 {
		return 0, 0, nil
	}

	// days preserves the ascending completion order of the source rows.
	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		prev, _ := time.Parse("2006-01-02", days[i-1])
		cur, _ := time.Parse("2006-01-02", days[i])
		if cur.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	lastDay := days[len(days)-1]
	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	if lastDay == today || lastDay == yesterday {
		current = run
	}
	return current, longest, last
}
