package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eduforge/eduforge-backend/internal/pkg/logger"
	"github.com/eduforge/eduforge-backend/internal/tenancy"
)

// TenantMiddleware establishes tenant context on public routes from the
// X-Tenant-ID header. Authenticated routes ignore the header; their tenant
// comes from the token.
type TenantMiddleware struct {
	log *logger.Logger
}

func NewTenantMiddleware(log *logger.Logger) *TenantMiddleware {
	return &TenantMiddleware{log: log.With("middleware", "TenantMiddleware")}
}

func (tm *TenantMiddleware) RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Tenant-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing X-Tenant-ID header"})
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil || tenantID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid X-Tenant-ID header"})
			return
		}
		ctx := tenancy.WithTenant(c.Request.Context(), tenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
