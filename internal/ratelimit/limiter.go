package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"twelfthman/internal/apperr"
	"twelfthman/internal/auth"
)

type Limiter struct {
	Counter Counter
	Window  time.Duration
	Logger  *zap.Logger
}

func New(counter Counter, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{Counter: counter, Window: time.Minute, Logger: logger}
}

// Allow reports whether key is still within limit for the current window.
func (l *Limiter) Allow(ctx context.Context, key string, limit int) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	window := l.Window
	if window <= 0 {
		window = time.Minute
	}
	n, err := l.Counter.Incr(ctx, key, window)
	if err != nil {
		return true, err
	}
	return n <= int64(limit), nil
}

// PerIP limits every request by client address.
func (l *Limiter) PerIP(limit int) gin.HandlerFunc {
	return l.middleware(limit, "Too many requests", func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	})
}

// PerUser limits by the authenticated caller. It must run after auth.Require.
func (l *Limiter) PerUser(scope string, limit int) gin.HandlerFunc {
	return l.middleware(limit, "Too many sync requests", func(c *gin.Context) string {
		uid := auth.UserID(c)
		if uid == "" {
			return ""
		}
		return scope + ":" + uid
	})
}

func (l *Limiter) middleware(limit int, message string, keyFn func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			c.Next()
			return
		}
		ok, err := l.Allow(c.Request.Context(), key, limit)
		if err != nil {
			// Fail open when the counter backend errors.
			l.Logger.Warn("rate limit counter failed", zap.String("key", key), zap.Error(err))
		}
		if !ok {
			e := apperr.RateLimited(message)
			c.Header("Retry-After", strconv.Itoa(int(l.Window.Seconds())))
			c.AbortWithStatusJSON(apperr.HTTPStatus(e), apperr.EnvelopeOf(e))
			return
		}
		c.Next()
	}
}
