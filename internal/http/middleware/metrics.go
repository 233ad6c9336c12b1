// README: Metrics middleware; counts requests per route and status class.
package middleware

import (
	"github.com/gin-gonic/gin"

	"pizzabot/internal/metrics"
)

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, metrics.StatusClass(c.Writer.Status())).Inc()
	}
}
