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

type EnrollmentHandler struct {
	log               *logger.Logger
	enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(log *logger.Logger, enrollmentService services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{log: log.With("handler", "EnrollmentHandler"), enrollmentService: enrollmentService}
}

func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}
	claims := middleware.Claims(c)
	if claims == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing claims"))
		return
	}

	enrollment, err := h.enrollmentService.Enroll(c.Request.Context(), claims.UserID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCourseNotFound):
			RespondError(c, http.StatusNotFound, "course_not_found", err)
		case errors.Is(err, services.ErrCourseUnavailable):
			RespondError(c, http.StatusConflict, "course_unavailable", err)
		case errors.Is(err, services.ErrAlreadyEnrolled):
			RespondError(c, http.StatusConflict, "already_enrolled", err)
		default:
			RespondError(c, http.StatusInternalServerError, "enrollment_failed", err)
		}
		return
	}
	RespondCreated(c, gin.H{"enrollment": enrollment})
}
