package learning

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/scope"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
)

type ActivityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, a *types.Activity) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Activity, error)
	ListActiveByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Activity, error)
	CountActiveByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error)
	// ListPriorInCourse returns active activities that precede orderIndex,
	// used by the sequential-unlock check.
	ListPriorInCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, orderIndex int) ([]*types.Activity, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return &activityRepo{db: db, log: baseLog.With("repo", "ActivityRepo")}
}

func (r *activityRepo) Create(ctx context.Context, tx *gorm.DB, a *types.Activity) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if a == nil {
		return nil
	}
	if a.TenantID == uuid.Nil {
		tenantID, err := scope.TenantFor(ctx)
		if err != nil {
			return err
		}
		a.TenantID = tenantID
	}
	return transaction.WithContext(ctx).Create(a).Error
}

func (r *activityRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var a types.Activity
	err := scope.Scoped(ctx, transaction.WithContext(ctx)).
		Where("id = ?", id).
		Limit(1).
		Find(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == uuid.Nil {
		return nil, nil
	}
	return &a, nil
}

func (r *activityRepo) ListActiveByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Activity
	if courseID == uuid.Nil {
		return out, nil
	}
	err := scope.Scoped(ctx, transaction.WithContext(ctx)).
		Where("course_id = ? AND is_active = ?", courseID, true).
		Order("order_index ASC").
		Find(&out).Error
	return out, err
}

func (r *activityRepo) CountActiveByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if courseID == uuid.Nil {
		return 0, nil
	}
	var count int64
	err := scope.Scoped(ctx, transaction.WithContext(ctx).Model(&types.Activity{})).
		Where("course_id = ? AND is_active = ?", courseID, true).
		Count(&count).Error
	return count, err
}

func (r *activityRepo) ListPriorInCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, orderIndex int) ([]*types.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Activity
	if courseID == uuid.Nil {
		return out, nil
	}
	err := scope.Scoped(ctx, transaction.WithContext(ctx)).
		Where("course_id = ? AND is_active = ? AND order_index < ?", courseID, true, orderIndex).
		Order("order_index ASC").
		Find(&out).Error
	return out, err
}
