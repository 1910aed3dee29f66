package worker

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/repos"
	"github.com/eduforge/eduforge-backend/internal/jobs/runtime"
	"github.com/eduforge/eduforge-backend/internal/pkg/dbctx"
	"github.com/eduforge/eduforge-backend/internal/pkg/envutil"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
)

// Worker polls job_runs and dispatches claimed rows to registered handlers.
// Claiming uses FOR UPDATE SKIP LOCKED, so any number of workers across any
// number of processes can poll the same table safely.
type Worker struct {
	db          *gorm.DB
	log         *logger.Logger
	repo        repos.JobRunRepo
	registry    *runtime.Registry
	concurrency int

	pollInterval time.Duration
	retryDelay   time.Duration
	staleRunning time.Duration
}

func New(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, registry *runtime.Registry) *Worker {
	return &Worker{
		db:           db,
		log:          baseLog.With("component", "JobWorker"),
		repo:         repo,
		registry:     registry,
		concurrency:  envutil.Int("WORKER_CONCURRENCY", 4),
		pollInterval: time.Second,
		retryDelay:   30 * time.Second,
		staleRunning: 2 * time.Minute,
	}
}

// Start launches the polling goroutines. They stop when ctx is canceled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		go w.loop(ctx)
	}
	w.log.Info("Job worker started", "concurrency", w.concurrency)
}

func (w *Worker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Drain the queue before going back to sleep.
			for {
				if !w.runOne(ctx) {
					break
				}
			}
		}
	}
}

// runOne claims and executes a single job, reporting whether anything was
// claimed.
func (w *Worker) runOne(ctx context.Context) bool {
	job, err := w.repo.ClaimNextRunnable(dbctx.Context{Ctx: ctx}, runtime.MaxAttempts, w.retryDelay, w.staleRunning)
	if err != nil {
		w.log.Warn("ClaimNextRunnable failed", "error", err)
		return false
	}
	if job == nil {
		return false
	}

	h, ok := w.registry.Get(job.JobType)
	if !ok {
		w.log.Warn("No handler registered for job_type", "job_type", job.JobType, "job_id", job.ID)
		jc := runtime.NewContext(ctx, w.db, job, w.repo)
		jc.Fail("dispatch", runtime.Permanent(fmt.Errorf("no handler registered for job_type=%s", job.JobType)))
		return true
	}

	jc := runtime.NewContext(ctx, w.db, job, w.repo)
	runErr := w.execute(h, jc)
	if runErr != nil {
		w.log.Warn("Job failed",
			"job_id", job.ID,
			"job_type", job.JobType,
			"attempts", job.Attempts,
			"permanent", runtime.IsPermanent(runErr),
			"error", runErr,
		)
		jc.Fail(job.Stage, runErr)
	}
	return true
}

// execute runs the handler with panic containment. A panicking handler
// fails its run instead of taking the worker down.
func (w *Worker) execute(h runtime.Handler, jc *runtime.Context) (runErr error) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Job handler panic",
				"job_id", jc.Job.ID,
				"job_type", jc.Job.JobType,
				"panic", r,
			)
			runErr = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.Run(jc)
}
