package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/taqiudeen275/furniture-auth/pkg/errors"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
)

// MaintenanceChecker reports whether maintenance mode is on
type MaintenanceChecker interface {
	Maintenance(ctx context.Context) (bool, error)
}

// Maintenance rejects requests with 503 while maintenance mode is on.
// Whitelisted client IPs and health checks pass through.
func Maintenance(checker MaintenanceChecker, whitelist []string, log logger.Logger) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(whitelist))
	for _, ip := range whitelist {
		allowed[ip] = struct{}{}
	}

	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/health") {
			c.Next()
			return
		}
		if _, ok := allowed[c.ClientIP()]; ok {
			c.Next()
			return
		}

		enabled, err := checker.Maintenance(c.Request.Context())
		if err != nil {
			log.WithError(err).Warn("Could not read maintenance flag")
			c.Next()
			return
		}

		if enabled {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "Service is under maintenance",
				"code":  apperrors.ErrCodeMaintenance,
			})
			return
		}

		c.Next()
	}
}
