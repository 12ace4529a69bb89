package security

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redis *redis.Client

	// Max requests per identifier per window.
	Limit  int64
	Window time.Duration
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		Limit:  30,
		Window: time.Minute,
	}
}

// QueueRateLimit is a middleware for the public queue endpoints: a Redis
// counter per client IP within a fixed window.
func (r *RateLimiter) QueueRateLimit() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ip := e.RealIP()
		key := fmt.Sprintf("ratelimit:%s", ip)

		count, err := r.redis.Incr(e.Request.Context(), key).Result()
		if err == nil {
			if count == 1 {
				r.redis.Expire(e.Request.Context(), key, r.Window)
			}
			if count > r.Limit {
				return e.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "Rate limit exceeded. Please try again later.",
				})
			}
		}

		return e.Next()
	}
}

// AntiBotMiddleware rejects obvious scripted clients on kiosk-facing routes.
func (r *RateLimiter) AntiBotMiddleware() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		userAgent := e.Request.Header.Get("User-Agent")
		if r.isSuspiciousUserAgent(userAgent) {
			return e.JSON(http.StatusForbidden, map[string]string{
				"error": "Access denied",
			})
		}
		return e.Next()
	}
}

func (r *RateLimiter) isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}
