package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/eduforge/eduforge-backend/internal/domain"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
	"github.com/eduforge/eduforge-backend/internal/realtime"
	"github.com/eduforge/eduforge-backend/internal/realtime/bus"
)

// NotificationDispatcher fans gamification outcomes out to users. Dispatch
// is best effort on every method: a broken transport is logged and never
// propagates into the pipeline that produced the outcome.
type NotificationDispatcher interface {
	ActivityCompleted(ctx context.Context, tenantID, userID uuid.UUID, activity *types.Activity, score, pointsAwarded int)
	BadgeEarned(ctx context.Context, tenantID, userID uuid.UUID, badge *types.Badge)
	LevelUp(ctx context.Context, tenantID, userID uuid.UUID, newLevel int, title string)
	CourseCompleted(ctx context.Context, tenantID, userID uuid.UUID, course *types.Course, pointsAwarded int)
	StreakMilestone(ctx context.Context, tenantID, userID uuid.UUID, streakDays int)
}

type busDispatcher struct {
	log *logger.Logger
	bus bus.Bus
}

// NewBusDispatcher publishes notifications through the event bus. A nil bus
// degrades to log-only dispatch, which keeps single-process deployments
// working without redis.
func NewBusDispatcher(baseLog *logger.Logger, b bus.Bus) NotificationDispatcher {
	return &busDispatcher{
		log: baseLog.With("service", "NotificationDispatcher"),
		bus: b,
	}
}

func (d *busDispatcher) publish(ctx context.Context, tenantID, userID uuid.UUID, event string, data map[string]any) {
	d.log.Info("Notification",
		"event", event,
		"tenant_id", tenantID,
		"user_id", userID,
	)
	if d.bus == nil {
		return
	}
	msg := realtime.Event{
		Channel: realtime.UserChannel(tenantID, userID),
		Event:   event,
		Data:    data,
	}
	if err := d.bus.Publish(ctx, msg); err != nil {
		d.log.Warn("Notification publish failed",
			"event", event,
			"user_id", userID,
			"error", err,
		)
	}
}

func (d *busDispatcher) ActivityCompleted(ctx context.Context, tenantID, userID uuid.UUID, activity *types.Activity, score, pointsAwarded int) {
	d.publish(ctx, tenantID, userID, realtime.EventActivityCompleted, map[string]any{
		"activity_id":    activity.ID,
		"activity_title": activity.Title,
		"score":          score,
		"points_awarded": pointsAwarded,
	})
	if pointsAwarded > 0 {
		d.publish(ctx, tenantID, userID, realtime.EventPointsAwarded, map[string]any{
			"points":      pointsAwarded,
			"source_type": "activity",
			"source_id":   activity.ID,
		})
	}
}

func (d *busDispatcher) BadgeEarned(ctx context.Context, tenantID, userID uuid.UUID, badge *types.Badge) {
	d.publish(ctx, tenantID, userID, realtime.EventBadgeEarned, map[string]any{
		"badge_id":     badge.ID,
		"badge_name":   badge.Name,
		"badge_type":   badge.Type,
		"icon":         badge.Icon,
		"points_value": badge.PointsValue,
	})
}

func (d *busDispatcher) LevelUp(ctx context.Context, tenantID, userID uuid.UUID, newLevel int, title string) {
	d.publish(ctx, tenantID, userID, realtime.EventLevelUp, map[string]any{
		"new_level": newLevel,
		"title":     title,
	})
}

func (d *busDispatcher) CourseCompleted(ctx context.Context, tenantID, userID uuid.UUID, course *types.Course, pointsAwarded int) {
	d.publish(ctx, tenantID, userID, realtime.EventCourseCompleted, map[string]any{
		"course_id":      course.ID,
		"course_title":   course.Title,
		"points_awarded": pointsAwarded,
	})
	if pointsAwarded > 0 {
		d.publish(ctx, tenantID, userID, realtime.EventPointsAwarded, map[string]any{
			"points":      pointsAwarded,
			"source_type": "course",
			"source_id":   course.ID,
		})
	}
}

func (d *busDispatcher) StreakMilestone(ctx context.Context, tenantID, userID uuid.UUID, streakDays int) {
	d.publish(ctx, tenantID, userID, realtime.EventStreakMilestone, map[string]any{
		"streak_days": streakDays,
	})
}
