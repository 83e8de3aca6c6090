package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/taqiudeen275/furniture-auth/internal/config"
	apperrors "github.com/taqiudeen275/furniture-auth/pkg/errors"
	"github.com/taqiudeen275/furniture-auth/pkg/logger"
)

const rateLimitPrefix = "rate_limit:"

// RateLimiter counts requests per client in fixed redis windows
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	clock  func() time.Time
}

// NewRateLimiter creates a limiter allowing RequestsPerMinute per client
func NewRateLimiter(client *redis.Client, cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  cfg.RequestsPerMinute,
		window: time.Minute,
		clock:  time.Now,
	}
}

// Allow increments the client's counter for the current window
func (rl *RateLimiter) Allow(ctx context.Context, clientID string) (bool, int, error) {
	bucket := rl.clock().UTC().Truncate(rl.window).Unix()
	key := rateLimitPrefix + clientID + ":" + strconv.FormatInt(bucket, 10)

	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if count == 1 {
		if err := rl.client.Expire(ctx, key, rl.window).Err(); err != nil {
			return false, 0, fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}

	remaining := rl.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return int(count) <= rl.limit, remaining, nil
}

// RateLimit creates a rate limiting middleware; redis errors let the request through
func RateLimit(limiter *RateLimiter, enabled bool, log logger.Logger) gin.HandlerFunc {
	if !enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		allowed, remaining, err := limiter.Allow(c.Request.Context(), getClientID(c))
		if err != nil {
			log.WithError(err).Warn("Rate limiter unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later",
				"code":  apperrors.ErrCodeRateLimited,
			})
			return
		}

		c.Next()
	}
}

func getClientID(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}
