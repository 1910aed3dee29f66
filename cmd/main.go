package main

import (
	"context"
	"fmt"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/eduforge/eduforge-backend/internal/data/repos"
	"github.com/eduforge/eduforge-backend/internal/db"
	"github.com/eduforge/eduforge-backend/internal/gamification"
	"github.com/eduforge/eduforge-backend/internal/handlers"
	"github.com/eduforge/eduforge-backend/internal/jobs/pipeline"
	"github.com/eduforge/eduforge-backend/internal/jobs/runtime"
	"github.com/eduforge/eduforge-backend/internal/jobs/worker"
	"github.com/eduforge/eduforge-backend/internal/middleware"
	"github.com/eduforge/eduforge-backend/internal/pkg/envutil"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
	"github.com/eduforge/eduforge-backend/internal/realtime/bus"
	"github.com/eduforge/eduforge-backend/internal/server"
	"github.com/eduforge/eduforge-backend/internal/services"
)

func main() {
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	jwtSecretKey := envutil.String("JWT_SECRET_KEY", "defaultsecret")
	httpAddr := envutil.String("HTTP_ADDR", ":8080")

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(thePG, log)
	courseRepo := repos.NewCourseRepo(thePG, log)
	activityRepo := repos.NewActivityRepo(thePG, log)
	enrollmentRepo := repos.NewEnrollmentRepo(thePG, log)
	userActivityRepo := repos.NewUserActivityRepo(thePG, log)
	pointRepo := repos.NewPointRepo(thePG, log)
	badgeRepo := repos.NewBadgeRepo(thePG, log)
	userBadgeRepo := repos.NewUserBadgeRepo(thePG, log)
	jobRunRepo := repos.NewJobRunRepo(thePG, log)

	// Redis: the event bus and leaderboard degrade gracefully without it.
	var (
		eventBus bus.Bus
		rdb      *goredis.Client
	)
	if b, err := bus.NewRedisBus(log); err != nil {
		log.Warn("Redis event bus unavailable, notifications are log-only", "error", err)
	} else {
		eventBus = b
		rdb = goredis.NewClient(&goredis.Options{
			Addr:        envutil.String("REDIS_ADDR", "localhost:6379"),
			DialTimeout: 5 * time.Second,
		})
	}

	// Gamification services
	log.Info("Setting up services...")
	ledger := gamification.NewLedger(log, userRepo, pointRepo)
	badgeEvaluator := gamification.NewBadgeEvaluator(log, badgeRepo, userBadgeRepo, userActivityRepo, enrollmentRepo, ledger)
	streakTracker := gamification.NewStreakTracker(log, userRepo, userActivityRepo)
	progressAggregator := gamification.NewProgressAggregator(log, activityRepo, enrollmentRepo, userActivityRepo)

	notify := services.NewBusDispatcher(log, eventBus)
	leaderboardService := services.NewLeaderboardService(log, rdb, pointRepo)
	authService := services.NewAuthService(thePG, log, userRepo, jwtSecretKey)
	activityService := services.NewActivityService(thePG, log, userRepo, activityRepo, enrollmentRepo, userActivityRepo, jobRunRepo)
	enrollmentService := services.NewEnrollmentService(thePG, log, userRepo, courseRepo, enrollmentRepo, ledger, badgeEvaluator, notify)
	profileService := services.NewProfileService(log, userRepo, pointRepo, userBadgeRepo, enrollmentRepo)

	// Job pipelines
	log.Info("Setting up job worker...")
	deps := &pipeline.Deps{
		DB:               thePG,
		Log:              log,
		UserRepo:         userRepo,
		CourseRepo:       courseRepo,
		ActivityRepo:     activityRepo,
		EnrollmentRepo:   enrollmentRepo,
		UserActivityRepo: userActivityRepo,
		PointRepo:        pointRepo,
		JobRunRepo:       jobRunRepo,
		Ledger:           ledger,
		Badges:           badgeEvaluator,
		Streaks:          streakTracker,
		Progress:         progressAggregator,
		Notify:           notify,
		Leaderboard:      leaderboardService,
	}
	registry := runtime.NewRegistry()
	for _, h := range []runtime.Handler{
		pipeline.NewActivityCompletion(deps),
		pipeline.NewCourseCompletion(deps),
		pipeline.NewReconcile(deps),
	} {
		if err := registry.Register(h); err != nil {
			log.Fatal("Handler registration failed", "job_type", h.Type(), "error", err)
		}
	}
	jobWorker := worker.New(thePG, log, jobRunRepo, registry)
	jobWorker.Start(context.Background())

	// HTTP
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:         handlers.NewAuthHandler(log, authService),
		ActivityHandler:     handlers.NewActivityHandler(log, activityService),
		EnrollmentHandler:   handlers.NewEnrollmentHandler(log, enrollmentService),
		GamificationHandler: handlers.NewGamificationHandler(log, profileService, leaderboardService),
		AuthMiddleware:      middleware.NewAuthMiddleware(log, authService),
		TenantMiddleware:    middleware.NewTenantMiddleware(log),
	})
	log.Info("Starting HTTP server", "addr", httpAddr)
	if err := router.Run(httpAddr); err != nil {
		log.Fatal("HTTP server exited", "error", err)
	}
}
