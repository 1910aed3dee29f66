package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eduforge/eduforge-backend/internal/middleware"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
	"github.com/eduforge/eduforge-backend/internal/services"
)

type ActivityHandler struct {
	log             *logger.Logger
	activityService services.ActivityService
}

func NewActivityHandler(log *logger.Logger, activityService services.ActivityService) *ActivityHandler {
	return &ActivityHandler{log: log.With("handler", "ActivityHandler"), activityService: activityService}
}

type completeActivityRequest struct {
	Score            int            `json:"score" binding:"min=0,max=100"`
	TimeSpentSeconds *int           `json:"time_spent_seconds"`
	Metadata         map[string]any `json:"metadata"`
}

// Complete records an activity completion for the authenticated user and
// queues its gamification processing. The response carries the job id so
// clients can poll for the outcome.
func (h *ActivityHandler) Complete(c *gin.Context) {
	activityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_activity_id", err)
		return
	}
	var req completeActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	claims := middleware.Claims(c)
	if claims == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing claims"))
		return
	}

	record, job, err := h.activityService.CompleteActivity(c.Request.Context(), services.CompleteActivityInput{
		UserID:           claims.UserID,
		ActivityID:       activityID,
		Score:            req.Score,
		TimeSpentSeconds: req.TimeSpentSeconds,
		Metadata:         req.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrActivityNotFound):
			RespondError(c, http.StatusNotFound, "activity_not_found", err)
		case errors.Is(err, services.ErrNotEnrolled):
			RespondError(c, http.StatusForbidden, "not_enrolled", err)
		case errors.Is(err, services.ErrActivityLocked):
			RespondError(c, http.StatusConflict, "activity_locked", err)
		case errors.Is(err, services.ErrActivityInactive):
			RespondError(c, http.StatusConflict, "activity_inactive", err)
		case errors.Is(err, services.ErrInvalidScore):
			RespondError(c, http.StatusBadRequest, "invalid_score", err)
		default:
			RespondError(c, http.StatusInternalServerError, "completion_failed", err)
		}
		return
	}
	RespondCreated(c, gin.H{
		"user_activity": record,
		"job_id":        job.ID,
	})
}
