package gamification

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eduforge/eduforge-backend/internal/data/repos"
	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
)

// Ledger appends point entries and keeps users.total_points in step with
// the sum of their entries. Entries are never updated or deleted.
type Ledger struct {
	log       *logger.Logger
	userRepo  repos.UserRepo
	pointRepo repos.PointRepo
}

func NewLedger(baseLog *logger.Logger, userRepo repos.UserRepo, pointRepo repos.PointRepo) *Ledger {
	return &Ledger{
		log:       baseLog.With("service", "PointsLedger"),
		userRepo:  userRepo,
		pointRepo: pointRepo,
	}
}

// Award appends one entry and refreshes the user's cached total inside the
// caller's transaction. Callers hold the user row lock (GetByIDForUpdate)
// when concurrent awards for the same user are possible.
func (l *Ledger) Award(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, pointType, sourceType string, sourceID uuid.UUID, description string) (*types.Point, error) {
	entry := &types.Point{
		ID:          uuid.New(),
		UserID:      userID,
		Points:      amount,
		Type:        pointType,
		SourceType:  sourceType,
		SourceID:    sourceID,
		Description: description,
	}
	if err := l.pointRepo.Append(ctx, tx, entry); err != nil {
		return nil, err
	}
	total, err := l.pointRepo.SumForUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := l.userRepo.UpdatePointsCache(ctx, tx, userID, total); err != nil {
		return nil, err
	}
	l.log.Info("Points awarded",
		"user_id", userID,
		"points", amount,
		"type", pointType,
		"source_type", sourceType,
		"source_id", sourceID,
		"total_points", total,
	)
	return entry, nil
}

// AwardOnce is Award guarded by the logical award key
// (user, source kind, source id, entry type): a retry of the same logical
// award appends nothing and reports awarded=false.
func (l *Ledger) AwardOnce(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount int, pointType, sourceType string, sourceID uuid.UUID, description string) (*types.Point, bool, error) {
	exists, err := l.pointRepo.ExistsForSource(ctx, tx, userID, sourceType, sourceID, pointType)
	if err != nil {
		return nil, false, err
	}
	if exists {
		l.log.Debug("Skipping duplicate award",
			"user_id", userID,
			"source_type", sourceType,
			"source_id", sourceID,
		)
		return nil, false, nil
	}
	entry, err := l.Award(ctx, tx, userID, amount, pointType, sourceType, sourceID, description)
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

// TotalFor replays the ledger for a user.
func (l *Ledger) TotalFor(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error) {
	return l.pointRepo.SumForUser(ctx, tx, userID)
}
