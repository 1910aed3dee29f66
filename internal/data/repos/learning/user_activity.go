package learning

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/scope"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
)

type UserActivityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, ua *types.UserActivity) error
	// LatestCompletedExcluding returns the most recent completion by the user
	// for any activity other than excludeActivityID. The streak tracker uses
	// it to find "the previous day with activity".
	LatestCompletedExcluding(ctx context.Context, tx *gorm.DB, userID, excludeActivityID uuid.UUID) (*types.UserActivity, error)
	// HasQualifyingCompletion reports whether the user has a completion for
	// the activity with score >= minScore.
	HasQualifyingCompletion(ctx context.Context, tx *gorm.DB, userID, activityID uuid.UUID, minScore int) (bool, error)
	// CountQualifyingInCourse counts distinct active activities of the course
	// the user has completed with score >= minScore.
	CountQualifyingInCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID, minScore int) (int64, error)
	CountQualifyingCompleted(ctx context.Context, tx *gorm.DB, userID uuid.UUID, minScore int) (int64, error)
	AverageScore(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (float64, error)
	ListCompletedByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserActivity, error)
}

type userActivityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserActivityRepo(db *gorm.DB, baseLog *logger.Logger) UserActivityRepo {
	return &userActivityRepo{db: db, log: baseLog.With("repo", "UserActivityRepo")}
}

func (r *userActivityRepo) Create(ctx context.Context, tx *gorm.DB, ua *types.UserActivity) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if ua == nil {
		return nil
	}
	if ua.TenantID == uuid.Nil {
		tenantID, err := scope.TenantFor(ctx)
		if err != nil {
			return err
		}
		ua.TenantID = tenantID
	}
	return transaction.WithContext(ctx).Create(ua).Error
}

func (r *userActivityRepo) LatestCompletedExcluding(ctx context.Context, tx *gorm.DB, userID, excludeActivityID uuid.UUID) (*types.UserActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	q := scope.Scoped(ctx, transaction.WithContext(ctx)).
		Where("user_id = ? AND completed_at IS NOT NULL", userID)
	if excludeActivityID != uuid.Nil {
		q = q.Where("activity_id != ?", excludeActivityID)
	}
	var ua types.UserActivity
	err := q.Order("completed_at DESC").Limit(1).Find(&ua).Error
	if err != nil {
		return nil, err
	}
	if ua.ID == uuid.Nil {
		return nil, nil
	}
	return &ua, nil
}

func (r *userActivityRepo) HasQualifyingCompletion(ctx context.Context, tx *gorm.DB, userID, activityID uuid.UUID, minScore int) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || activityID == uuid.Nil {
		return false, nil
	}
	var count int64
	err := scope.Scoped(ctx, transaction.WithContext(ctx).Model(&types.UserActivity{})).
		Where("user_id = ? AND activity_id = ? AND completed_at IS NOT NULL AND score >= ?", userID, activityID, minScore).
		Count(&count).Error
	return count > 0, err
}

func (r *userActivityRepo) CountQualifyingInCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID, minScore int) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || courseID == uuid.Nil {
		return 0, nil
	}
	var count int64
	err := scope.ScopedTable(ctx, transaction.WithContext(ctx).Model(&types.UserActivity{}), "user_activities").
		Distinct("user_activities.activity_id").
		Joins("JOIN activities ON activities.id = user_activities.activity_id").
		Where("activities.course_id = ? AND activities.is_active = ?", courseID, true).
		Where("user_activities.user_id = ? AND user_activities.completed_at IS NOT NULL AND user_activities.score >= ?", userID, minScore).
		Count(&count).Error
	return count, err
}

func (r *userActivityRepo) CountQualifyingCompleted(ctx context.Context, tx *gorm.DB, userID uuid.UUID, minScore int) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return 0, nil
	}
	var count int64
	err := scope.Scoped(ctx, transaction.WithContext(ctx).Model(&types.UserActivity{})).
		Distinct("activity_id").
		Where("user_id = ? AND completed_at IS NOT NULL AND score >= ?", userID, minScore).
		Count(&count).Error
	return count, err
}

func (r *userActivityRepo) AverageScore(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (float64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return 0, nil
	}
	var avg *float64
	err := scope.Scoped(ctx, transaction.WithContext(ctx).Model(&types.UserActivity{})).
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Select("AVG(score)").
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}

func (r *userActivityRepo) ListCompletedByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.UserActivity
	if userID == uuid.Nil {
		return out, nil
	}
	err := scope.Scoped(ctx, transaction.WithContext(ctx)).
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Order("completed_at ASC").
		Find(&out).Error
	return out, err
}
