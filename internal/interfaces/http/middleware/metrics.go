package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/salesflow/backend/internal/infrastructure/telemetry"
)

// unmatchedRoute labels requests that hit no registered route, keeping
// label cardinality bounded
const unmatchedRoute = "unmatched"

// HTTPMetrics records request count, latency and in-flight requests on the
// Prometheus collectors. Routes are labelled with their pattern, never the raw path.
func HTTPMetrics(m *telemetry.HTTPMetrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return func(c *gin.Context) {
		start := time.Now()
		m.InFlight.Inc()
		defer m.InFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		status := strconv.Itoa(c.Writer.Status())
		m.Requests.WithLabelValues(c.Request.Method, route, status).Inc()
		m.Duration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}
