package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/01moynul/artisansloom-golang/internal/apperrors"
)

// RateLimiter is a fixed-window request counter per caller and operation,
// kept in Redis so every API replica shares it.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	log    *zap.Logger
	now    func() time.Time
}

// NewRateLimiter allows limit requests per window. A limit <= 0 disables
// limiting.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration, log *zap.Logger) *RateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &RateLimiter{client: client, limit: limit, window: window, log: log, now: time.Now}
}

// Allow counts one request for subject on op and reports whether it fits
// in the current window.
func (l *RateLimiter) Allow(ctx context.Context, subject, op string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}
	bucket := l.now().UnixNano() / int64(l.window)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", subject, op, bucket)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("incr %s: %w", key, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return count <= int64(l.limit), nil
}

// Middleware applies the limiter per route. Callers are keyed by uid when
// authenticated and by client IP otherwise. Redis failures let the request
// through.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := "ip:" + c.ClientIP()
		if caller, ok := CallerFrom(c); ok {
			subject = "uid:" + caller.UID
		}

		allowed, err := l.Allow(c.Request.Context(), subject, c.FullPath())
		if err != nil {
			l.log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			Abort(c, apperrors.ResourceExhausted("ratelimit", "too many requests, slow down"))
			return
		}
		c.Next()
	}
}
