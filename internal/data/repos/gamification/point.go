package gamification

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/scope"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
)

type PointRepo interface {
	// Append inserts one immutable ledger entry. There is deliberately no
	// update or delete on this repo.
	Append(ctx context.Context, tx *gorm.DB, p *types.Point) error
	// ExistsForSource reports whether an entry with the same logical award
	// key (user, source kind, source id, type) already exists. Orchestrator
	// steps use it to stay idempotent under at-least-once retries.
	ExistsForSource(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sourceType string, sourceID uuid.UUID, pointType string) (bool, error)
	// SumForUser replays the ledger: earned + bonus minus spent + penalty,
	// floored at zero.
	SumForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Point, error)
	// TopTotals returns the highest ledger totals in the tenant, descending.
	TopTotals(ctx context.Context, tx *gorm.DB, limit int) ([]types.UserTotal, error)
}

type pointRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPointRepo(db *gorm.DB, baseLog *logger.Logger) PointRepo {
	return &pointRepo{db: db, log: baseLog.With("repo", "PointRepo")}
}

func (r *pointRepo) Append(ctx context.Context, tx *gorm.DB, p *types.Point) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if p == nil {
		return nil
	}
	if p.TenantID == uuid.Nil {
		tenantID, err := scope.TenantFor(ctx)
		if err != nil {
			return err
		}
		p.TenantID = tenantID
	}
	return transaction.WithContext(ctx).Create(p).Error
}

func (r *pointRepo) ExistsForSource(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sourceType string, sourceID uuid.UUID, pointType string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || sourceID == uuid.Nil || sourceType == "" {
		return false, nil
	}
	var count int64
	err := scope.Scoped(ctx, transaction.WithContext(ctx).Model(&types.Point{})).
		Where("user_id = ? AND source_type = ? AND source_id = ? AND type = ?", userID, sourceType, sourceID, pointType).
		Count(&count).Error
	return count > 0, err
}

func (r *pointRepo) SumForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return 0, nil
	}
	var sum *int64
	err := scope.Scoped(ctx, transaction.WithContext(ctx).Model(&types.Point{})).
		Where("user_id = ?", userID).
		Select("SUM(CASE WHEN type IN ('spent','penalty') THEN -points ELSE points END)").
		Scan(&sum).Error
	if err != nil || sum == nil {
		return 0, err
	}
	total := int(*sum)
	if total < 0 {
		total = 0
	}
	return total, nil
}

func (r *pointRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Point, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Point
	if userID == uuid.Nil {
		return out, nil
	}
	q := scope.Scoped(ctx, transaction.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *pointRepo) TopTotals(ctx context.Context, tx *gorm.DB, limit int) ([]types.UserTotal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 10
	}
	var out []types.UserTotal
	err := scope.Scoped(ctx, transaction.WithContext(ctx).Model(&types.Point{})).
		Select("user_id, SUM(CASE WHEN type IN ('spent','penalty') THEN -points ELSE points END) AS total_points").
		Group("user_id").
		Order("total_points DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}
