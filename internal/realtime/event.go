package realtime

import "github.com/google/uuid"

const (
	EventActivityCompleted = "activity_completed"
	EventPointsAwarded     = "points_awarded"
	EventBadgeEarned       = "badge_earned"
	EventLevelUp           = "level_up"
	EventCourseCompleted   = "course_completed"
	EventStreakMilestone   = "streak_milestone"
)

// Event is one notification fanned out to connected clients. Channel is the
// per-user routing key; events never cross tenants because the channel is
// derived from tenant and user together.
type Event struct {
	Channel string         `json:"channel"`
	Event   string         `json:"event"`
	Data    map[string]any `json:"data,omitempty"`
}

// UserChannel builds the routing key for a user's notification stream.
func UserChannel(tenantID, userID uuid.UUID) string {
	return tenantID.String() + ":" + userID.String()
}
