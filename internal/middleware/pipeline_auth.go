package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "github.com/BudHamud/safe/internal/errors"
	"github.com/BudHamud/safe/internal/logger"
)

// APIKeyHeader carries the maintenance key for /pipeline routes.
const APIKeyHeader = "X-API-Key"

// PipelineAuthMiddleware guards the snapshot backfill and other maintenance
// routes. With no key configured they answer 503.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	expected := []byte(apiKey)
	return func(c *gin.Context) {
		if len(expected) == 0 {
			abortWithError(c, apperrors.ErrPipelineNotConfigured)
			return
		}
		if subtle.ConstantTimeCompare([]byte(c.GetHeader(APIKeyHeader)), expected) != 1 {
			logger.Named("pipeline").Warnw("rejected maintenance call",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
			)
			abortWithError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
