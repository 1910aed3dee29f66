package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/eduforge/eduforge-backend/internal/data/repos"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
	"github.com/eduforge/eduforge-backend/internal/tenancy"
)

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      uuid.UUID `json:"user_id"`
	TotalPoints int       `json:"total_points"`
}

// LeaderboardService ranks users by point total inside a tenant. The redis
// sorted set is a cache over the ledger: SetScore refreshes it as awards
// land, and Top falls back to a ledger aggregation when redis is absent or
// cold.
type LeaderboardService interface {
	// SetScore is best effort. Ranking staleness is acceptable; losing a
	// pipeline over it is not.
	SetScore(ctx context.Context, tenantID, userID uuid.UUID, totalPoints int)
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

type leaderboardService struct {
	log       *logger.Logger
	rdb       *goredis.Client
	pointRepo repos.PointRepo
}

// NewLeaderboardService accepts a nil redis client; every read then comes
// straight from the ledger.
func NewLeaderboardService(baseLog *logger.Logger, rdb *goredis.Client, pointRepo repos.PointRepo) LeaderboardService {
	return &leaderboardService{
		log:       baseLog.With("service", "LeaderboardService"),
		rdb:       rdb,
		pointRepo: pointRepo,
	}
}

func leaderboardKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("leaderboard:%s", tenantID)
}

func (s *leaderboardService) SetScore(ctx context.Context, tenantID, userID uuid.UUID, totalPoints int) {
	if s.rdb == nil || tenantID == uuid.Nil || userID == uuid.Nil {
		return
	}
	err := s.rdb.ZAdd(ctx, leaderboardKey(tenantID), goredis.Z{
		Score:  float64(totalPoints),
		Member: userID.String(),
	}).Err()
	if err != nil {
		s.log.Warn("Leaderboard update failed",
			"tenant_id", tenantID,
			"user_id", userID,
			"error", err,
		)
	}
}

func (s *leaderboardService) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	tenantID, err := tenancy.Require(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	if s.rdb != nil {
		rows, err := s.rdb.ZRevRangeWithScores(ctx, leaderboardKey(tenantID), 0, int64(limit-1)).Result()
		if err != nil {
			s.log.Warn("Leaderboard read from redis failed", "tenant_id", tenantID, "error", err)
		} else if len(rows) > 0 {
			out := make([]LeaderboardEntry, 0, len(rows))
			for i, z := range rows {
				id, err := uuid.Parse(fmt.Sprint(z.Member))
				if err != nil {
					continue
				}
				out = append(out, LeaderboardEntry{
					Rank:        i + 1,
					UserID:      id,
					TotalPoints: int(z.Score),
				})
			}
			return out, nil
		}
	}

	return s.topFromLedger(ctx, limit)
}

func (s *leaderboardService) topFromLedger(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	totals, err := s.pointRepo.TopTotals(ctx, nil, limit)
	if err != nil {
		return nil, err
	}
	out := make([]LeaderboardEntry, 0, len(totals))
	for i, t := range totals {
		total := t.TotalPoints
		if total < 0 {
			total = 0
		}
		out = append(out, LeaderboardEntry{
			Rank:        i + 1,
			UserID:      t.UserID,
			TotalPoints: total,
		})
	}
	return out, nil
}
