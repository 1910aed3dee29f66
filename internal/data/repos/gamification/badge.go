package gamification

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/scope"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
)

type BadgeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, b *types.Badge) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Badge, error)
	ListActiveByTypes(ctx context.Context, tx *gorm.DB, badgeTypes ...string) ([]*types.Badge, error)
	GetActiveByTypeAndName(ctx context.Context, tx *gorm.DB, badgeType, name string) (*types.Badge, error)
}

type badgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBadgeRepo(db *gorm.DB, baseLog *logger.Logger) BadgeRepo {
	return &badgeRepo{db: db, log: baseLog.With("repo", "BadgeRepo")}
}

func (r *badgeRepo) Create(ctx context.Context, tx *gorm.DB, b *types.Badge) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if b == nil {
		return nil
	}
	if b.TenantID == uuid.Nil {
		tenantID, err := scope.TenantFor(ctx)
		if err != nil {
			return err
		}
		b.TenantID = tenantID
	}
	return transaction.WithContext(ctx).Create(b).Error
}

func (r *badgeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Badge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var b types.Badge
	err := scope.Scoped(ctx, transaction.WithContext(ctx)).
		Where("id = ?", id).
		Limit(1).
		Find(&b).Error
	if err != nil {
		return nil, err
	}
	if b.ID == uuid.Nil {
		return nil, nil
	}
	return &b, nil
}

func (r *badgeRepo) ListActiveByTypes(ctx context.Context, tx *gorm.DB, badgeTypes ...string) ([]*types.Badge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Badge
	if len(badgeTypes) == 0 {
		return out, nil
	}
	err := scope.Scoped(ctx, transaction.WithContext(ctx)).
		Where("is_active = ? AND type IN ?", true, badgeTypes).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *badgeRepo) GetActiveByTypeAndName(ctx context.Context, tx *gorm.DB, badgeType, name string) (*types.Badge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if badgeType == "" || name == "" {
		return nil, nil
	}
	var b types.Badge
	err := scope.Scoped(ctx, transaction.WithContext(ctx)).
		Where("is_active = ? AND type = ? AND name = ?", true, badgeType, name).
		Limit(1).
		Find(&b).Error
	if err != nil {
		return nil, err
	}
	if b.ID == uuid.Nil {
		return nil, nil
	}
	return &b, nil
}
