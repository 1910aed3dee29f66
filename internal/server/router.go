package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/eduforge/eduforge-backend/internal/handlers"
	"github.com/eduforge/eduforge-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler         *handlers.AuthHandler
	ActivityHandler     *handlers.ActivityHandler
	EnrollmentHandler   *handlers.EnrollmentHandler
	GamificationHandler *handlers.GamificationHandler
	AuthMiddleware      *middleware.AuthMiddleware
	TenantMiddleware    *middleware.TenantMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Tenant-ID"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	// Public routes resolve their tenant from the X-Tenant-ID header.
	public := router.Group("/")
	public.Use(cfg.TenantMiddleware.RequireTenant())
	public.POST("/register", cfg.AuthHandler.Register)
	public.POST("/login", cfg.AuthHandler.Login)

	// Protected routes take their tenant from the verified token.
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.POST("/activities/:id/complete", cfg.ActivityHandler.Complete)
	protected.POST("/courses/:id/enroll", cfg.EnrollmentHandler.Enroll)
	protected.GET("/courses/:id/progress", cfg.GamificationHandler.CourseProgress)
	protected.GET("/gamification/profile", cfg.GamificationHandler.GetProfile)
	protected.GET("/gamification/points", cfg.GamificationHandler.PointsHistory)
	protected.GET("/gamification/leaderboard", cfg.GamificationHandler.Leaderboard)

	return router
}
