package learning

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/scope"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
)

type CourseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, c *types.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error)
	ListPublished(ctx context.Context, tx *gorm.DB) ([]*types.Course, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, c *types.Course) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if c == nil {
		return nil
	}
	if c.TenantID == uuid.Nil {
		tenantID, err := scope.TenantFor(ctx)
		if err != nil {
			return err
		}
		c.TenantID = tenantID
	}
	return transaction.WithContext(ctx).Create(c).Error
}

func (r *courseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var c types.Course
	err := scope.Scoped(ctx, transaction.WithContext(ctx)).
		Where("id = ?", id).
		Limit(1).
		Find(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		return nil, nil
	}
	return &c, nil
}

func (r *courseRepo) ListPublished(ctx context.Context, tx *gorm.DB) ([]*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Course
	err := scope.Scoped(ctx, transaction.WithContext(ctx)).
		Where("status = ?", types.CourseStatusPublished).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}
