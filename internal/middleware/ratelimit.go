package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/internship-api/pkg/config"
	appErrors "github.com/noah-isme/internship-api/pkg/errors"
	"github.com/noah-isme/internship-api/pkg/response"
)

type limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit throttles a route per authenticated user. It must run after JWT.
// Limiter errors let the request through.
func RateLimit(l limiter, scope string, cfg config.RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if !cfg.Enabled || l == nil {
			c.Next()
			return
		}
		claims := ClaimsFromContext(c)
		if claims == nil || claims.UserID == "" {
			c.Next()
			return
		}

		key := "ratelimit:" + scope + ":" + claims.UserID
		allowed, err := l.Allow(c.Request.Context(), key, cfg.ApplyLimit, cfg.ApplyWindow)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			logger.Info("rate limit exceeded",
				zap.String("scope", scope),
				zap.String("user_id", claims.UserID),
				zap.String("path", c.FullPath()))
			c.Header("Retry-After", retryAfter(cfg.ApplyWindow))
			response.Error(c, appErrors.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}

func retryAfter(window time.Duration) string {
	seconds := int(window / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
