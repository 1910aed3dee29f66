package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eduforge/eduforge-backend/internal/middleware"
	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
	"github.com/eduforge/eduforge-backend/internal/services"
)

type GamificationHandler struct {
	log                *logger.Logger
	profileService     services.ProfileService
	leaderboardService services.LeaderboardService
}

func NewGamificationHandler(log *logger.Logger, profileService services.ProfileService, leaderboardService services.LeaderboardService) *GamificationHandler {
	return &GamificationHandler{
		log:                log.With("handler", "GamificationHandler"),
		profileService:     profileService,
		leaderboardService: leaderboardService,
	}
}

func (h *GamificationHandler) GetProfile(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing claims"))
		return
	}
	profile, err := h.profileService.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			RespondError(c, http.StatusNotFound, "user_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "profile_failed", err)
		return
	}
	RespondOK(c, profile)
}

func (h *GamificationHandler) PointsHistory(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing claims"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	points, err := h.profileService.PointsHistory(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "points_failed", err)
		return
	}
	RespondOK(c, gin.H{"points": points})
}

func (h *GamificationHandler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	entries, err := h.leaderboardService.Top(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "leaderboard_failed", err)
		return
	}
	RespondOK(c, gin.H{"leaderboard": entries})
}

func (h *GamificationHandler) CourseProgress(c *gin.Context) {
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
	enrollment, err := h.profileService.CourseProgress(c.Request.Context(), claims.UserID, courseID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "progress_failed", err)
		return
	}
	if enrollment == nil {
		RespondError(c, http.StatusNotFound, "not_enrolled", errors.New("no enrollment for course"))
		return
	}
	RespondOK(c, gin.H{"enrollment": enrollment})
}
