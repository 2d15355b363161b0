package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
	"github.com/noah-isme/sma-substitution-api/pkg/response"
)

// RequestTimeout bounds the request context so store calls give up instead
// of piling up behind a slow database.
func RequestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// FeatureFlag answers FEATURE_DISABLED for routes switched off in config.
func FeatureFlag(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			response.Error(c, appErrors.ErrFeatureDisabled)
			c.Abort()
			return
		}
		c.Next()
	}
}
