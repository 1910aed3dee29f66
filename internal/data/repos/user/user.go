package user

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

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, u *types.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error)
	// GetByIDForUpdate locks the user row for the duration of the enclosing
	// transaction. Callers serialize read-modify-write of the cached
	// total_points/level/streak fields through this.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error)
	ListByRole(ctx context.Context, tx *gorm.DB, role string) ([]*types.User, error)
	// ListIDs returns the ids of every user in the tenant.
	ListIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error)
	UpdatePointsCache(ctx context.Context, tx *gorm.DB, id uuid.UUID, totalPoints int) error
	UpdateLevel(ctx context.Context, tx *gorm.DB, id uuid.UUID, level int) error
	UpdateStreak(ctx context.Context, tx *gorm.DB, id uuid.UUID, current, longest int, lastActivity time.Time) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, u *types.User) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if u == nil {
		return nil
	}
	if u.TenantID == nil {
		tenantID, err := scope.TenantFor(ctx)
		if err != nil {
			return err
		}
		u.TenantID = &tenantID
	}
	return transaction.WithContext(ctx).Create(u).Error
}

func (r *userRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	return r.getByID(ctx, tx, id, false)
}

func (r *userRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	return r.getByID(ctx, tx, id, true)
}

func (r *userRepo) getByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, forUpdate bool) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	q := scope.Scoped(ctx, transaction.WithContext(ctx)).Where("id = ?", id)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var u types.User
	err := q.Limit(1).Find(&u).Error
	if err != nil {
		return nil, err
	}
	if u.ID == uuid.Nil {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if email == "" {
		return nil, nil
	}
	var u types.User
	err := scope.Scoped(ctx, transaction.WithContext(ctx)).
		Where("email = ?", email).
		Limit(1).
		Find(&u).Error
	if err != nil {
		return nil, err
	}
	if u.ID == uuid.Nil {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) ListByRole(ctx context.Context, tx *gorm.DB, role string) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.User
	err := scope.Scoped(ctx, transaction.WithContext(ctx)).
		Where("role = ?", role).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *userRepo) ListIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	err := scope.Scoped(ctx, transaction.WithContext(ctx).Model(&types.User{})).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *userRepo) UpdatePointsCache(ctx context.Context, tx *gorm.DB, id uuid.UUID, totalPoints int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return scope.Scoped(ctx, transaction.WithContext(ctx).Model(&types.User{})).
		Where("id = ?", id).
		Update("total_points", totalPoints).Error
}

func (r *userRepo) UpdateLevel(ctx context.Context, tx *gorm.DB, id uuid.UUID, level int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return scope.Scoped(ctx, transaction.WithContext(ctx).Model(&types.User{})).
		Where("id = ?", id).
		Update("level", level).Error
}

func (r *userRepo) UpdateStreak(ctx context.Context, tx *gorm.DB, id uuid.UUID, current, longest int, lastActivity time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return scope.Scoped(ctx, transaction.WithContext(ctx).Model(&types.User{})).
		Where("id = ?", id).
		Updates(map[string]any{
			"current_streak":     current,
			"longest_streak":     longest,
			"last_activity_date": lastActivity,
		}).Error
}
