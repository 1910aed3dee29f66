package learning

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eduforge/eduforge-backend/internal/data/scope"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
)

type EnrollmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, e *types.CourseEnrollment) error
	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseEnrollment, error)
	GetByUserAndCourseForUpdate(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseEnrollment, error)
	CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	CountCompletedByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	UpdateProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, percentage float64) error
	// MarkCompleted sets completed_at only when it is still null and reports
	// whether this call performed the transition. That guard is what keeps
	// "just completed" from firing twice under retries.
	MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, completedAt time.Time) (bool, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) Create(ctx context.Context, tx *gorm.DB, e *types.CourseEnrollment) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if e == nil {
		return nil
	}
	if e.TenantID == uuid.Nil {
		tenantID, err := scope.TenantFor(ctx)
		if err != nil {
			return err
		}
		e.TenantID = tenantID
	}
	return transaction.WithContext(ctx).Create(e).Error
}

func (r *enrollmentRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseEnrollment, error) {
	return r.getByUserAndCourse(ctx, tx, userID, courseID, false)
}

func (r *enrollmentRepo) GetByUserAndCourseForUpdate(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseEnrollment, error) {
	return r.getByUserAndCourse(ctx, tx, userID, courseID, true)
}

func (r *enrollmentRepo) getByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID, forUpdate bool) (*types.CourseEnrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}
	q := scope.Scoped(ctx, transaction.WithContext(ctx)).
		Where("user_id = ? AND course_id = ?", userID, courseID)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var e types.CourseEnrollment
	err := q.Limit(1).Find(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID == uuid.Nil {
		return nil, nil
	}
	return &e, nil
}

func (r *enrollmentRepo) CountByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return 0, nil
	}
	var count int64
	err := scope.Scoped(ctx, transaction.WithContext(ctx).Model(&types.CourseEnrollment{})).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *enrollmentRepo) CountCompletedByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return 0, nil
	}
	var count int64
	err := scope.Scoped(ctx, transaction.WithContext(ctx).Model(&types.CourseEnrollment{})).
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Count(&count).Error
	return count, err
}

func (r *enrollmentRepo) UpdateProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, percentage float64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return scope.Scoped(ctx, transaction.WithContext(ctx).Model(&types.CourseEnrollment{})).
		Where("id = ?", id).
		Update("progress_percentage", percentage).Error
}

func (r *enrollmentRepo) MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, completedAt time.Time) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := scope.Scoped(ctx, transaction.WithContext(ctx).Model(&types.CourseEnrollment{})).
		Where("id = ? AND completed_at IS NULL", id).
		Update("completed_at", completedAt)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
