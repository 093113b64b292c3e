package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/preschool-ops-api/internal/service"
)

// unmatchedRoute labels requests that hit no registered route, keeping raw
// URLs (school slugs, ids) out of the metric labels.
const unmatchedRoute = "unmatched"

// Metrics records duration and count of every request by route template.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
