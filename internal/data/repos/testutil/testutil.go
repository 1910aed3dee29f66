package testutil

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
	"github.com/eduforge/eduforge-backend/internal/tenancy"
)

var errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")

var (
	dbOnce sync.Once
	db     *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			dbErr = errMissingDSN
			return
		}

		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			dbErr = err
			return
		}

		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
			dbErr = err
			return
		}

		if err := autoMigrateAll(db); err != nil {
			dbErr = err
			return
		}
	})

	if errors.Is(dbErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run repo integration tests")
	}
	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return db
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

// TenantCtx returns a context scoped to a fresh tenant id.
func TenantCtx(tb testing.TB) (context.Context, uuid.UUID) {
	tb.Helper()
	tenantID := uuid.New()
	return tenancy.WithTenant(context.Background(), tenantID), tenantID
}

// SeedUser inserts a minimal student in the tenant carried by ctx.
func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB) *types.User {
	tb.Helper()
	tenantID, err := tenancy.Require(ctx)
	if err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	u := &types.User{
		ID:       uuid.New(),
		TenantID: &tenantID,
		Email:    uuid.NewString() + "@example.test",
		Password: "x",
		Name:     "Test Student",
		Role:     types.RoleStudent,
		Level:    1,
	}
	if err := tx.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedCourse inserts a published course with the given completion reward.
func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, pointsPerCompletion int) *types.Course {
	tb.Helper()
	tenantID, err := tenancy.Require(ctx)
	if err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	c := &types.Course{
		ID:                  uuid.New(),
		TenantID:            tenantID,
		Title:               "Test Course",
		Status:              types.CourseStatusPublished,
		PointsPerCompletion: pointsPerCompletion,
	}
	if err := tx.Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

// SeedActivity inserts an active required activity in the course.
func SeedActivity(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, activityType string, orderIndex, pointsValue int) *types.Activity {
	tb.Helper()
	tenantID, err := tenancy.Require(ctx)
	if err != nil {
		tb.Fatalf("seed activity: %v", err)
	}
	a := &types.Activity{
		ID:          uuid.New(),
		TenantID:    tenantID,
		CourseID:    courseID,
		Title:       "Test Activity",
		Type:        activityType,
		PointsValue: pointsValue,
		OrderIndex:  orderIndex,
		IsRequired:  true,
		IsActive:    true,
	}
	if err := tx.Create(a).Error; err != nil {
		tb.Fatalf("seed activity: %v", err)
	}
	return a
}

// SeedEnrollment inserts an enrollment dated enrolledAt.
func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID, enrolledAt time.Time) *types.CourseEnrollment {
	tb.Helper()
	tenantID, err := tenancy.Require(ctx)
	if err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	e := &types.CourseEnrollment{
		ID:         uuid.New(),
		TenantID:   tenantID,
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: enrolledAt,
	}
	if err := tx.Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

// SeedCompletion inserts a completed attempt with the given score.
func SeedCompletion(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, activityID uuid.UUID, score int, completedAt time.Time) *types.UserActivity {
	tb.Helper()
	tenantID, err := tenancy.Require(ctx)
	if err != nil {
		tb.Fatalf("seed completion: %v", err)
	}
	ua := &types.UserActivity{
		ID:          uuid.New(),
		TenantID:    tenantID,
		UserID:      userID,
		ActivityID:  activityID,
		StartedAt:   &completedAt,
		CompletedAt: &completedAt,
		Score:       score,
		Attempts:    1,
	}
	if err := tx.Create(ua).Error; err != nil {
		tb.Fatalf("seed completion: %v", err)
	}
	return ua
}

func autoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Tenant{},
		&types.User{},
		&types.Course{},
		&types.Activity{},
		&types.CourseEnrollment{},
		&types.UserActivity{},
		&types.Point{},
		&types.Badge{},
		&types.UserBadge{},
		&types.JobRun{},
	)
}
