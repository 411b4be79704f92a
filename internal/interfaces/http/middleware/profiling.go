package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/infrastructure/telemetry"
)

// Profiling labels the request goroutine with its route pattern, method and
// tenant so CPU and allocation profiles can be sliced per endpoint. Place it
// after the tenant middleware. Disabled, it only calls the next handler.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return func(c *gin.Context) {
		labels := map[string]string{
			telemetry.ProfilingLabelMethod: c.Request.Method,
			telemetry.ProfilingLabelRoute:  c.FullPath(),
		}
		if tenantID := GetTenantID(c); tenantID != uuid.Nil {
			labels[telemetry.ProfilingLabelTenantID] = tenantID.String()
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
