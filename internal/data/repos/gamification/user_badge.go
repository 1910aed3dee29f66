package gamification

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eduforge/eduforge-backend/internal/data/scope"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
)

type UserBadgeRepo interface {
	// Grant inserts the grant row and reports whether it was newly created.
	// Replays of an already-held badge insert nothing and report false.
	Grant(ctx context.Context, tx *gorm.DB, ub *types.UserBadge) (bool, error)
	Has(ctx context.Context, tx *gorm.DB, userID, badgeID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserBadge, error)
}

type userBadgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserBadgeRepo(db *gorm.DB, baseLog *logger.Logger) UserBadgeRepo {
	return &userBadgeRepo{db: db, log: baseLog.With("repo", "UserBadgeRepo")}
}

func (r *userBadgeRepo) Grant(ctx context.Context, tx *gorm.DB, ub *types.UserBadge) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if ub == nil {
		return false, nil
	}
	if ub.TenantID == uuid.Nil {
		tenantID, err := scope.TenantFor(ctx)
		if err != nil {
			return false, err
		}
		ub.TenantID = tenantID
	}
	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
			DoNothing: true,
		}).
		Create(ub)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *userBadgeRepo) Has(ctx context.Context, tx *gorm.DB, userID, badgeID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || badgeID == uuid.Nil {
		return false, nil
	}
	var count int64
	err := scope.Scoped(ctx, transaction.WithContext(ctx).Model(&types.UserBadge{})).
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		Count(&count).Error
	return count > 0, err
}

func (r *userBadgeRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserBadge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.UserBadge
	if userID == uuid.Nil {
		return out, nil
	}
	err := scope.Scoped(ctx, transaction.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&out).Error
	return out, err
}
