package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"fanclub/pkg/logger"
	"fanclub/pkg/respond"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// localLimiter is used when redis is not configured or not answering.
type localLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newLocalLimiter(limit int, window time.Duration) *localLimiter {
	return &localLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(float64(limit) / window.Seconds()),
		burst:    limit,
	}
}

func (l *localLimiter) allow(key string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// RateLimitMiddleware allows limit requests per window per user (or client IP)
// and route. Counting happens in redis so replicas share it.
func RateLimitMiddleware(redisClient *redis.Client, limit int, window time.Duration, log *logger.Logger) gin.HandlerFunc {
	local := newLocalLimiter(limit, window)
	return func(c *gin.Context) {
		subject := UserID(c)
		if subject == "" {
			subject = c.ClientIP()
		}
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := fmt.Sprintf("rate_limit:%s:%s", route, subject)

		var allowed bool
		if redisClient != nil {
			ctx := c.Request.Context()
			count, err := redisClient.Incr(ctx, key).Result()
			if err != nil {
				log.Warn("Rate limit check failed, using local limiter: %v", err)
				allowed = local.allow(key)
			} else {
				if count == 1 {
					redisClient.Expire(ctx, key, window)
				}
				allowed = count <= int64(limit)
			}
		} else {
			allowed = local.allow(key)
		}

		if !allowed {
			respond.Fail(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}
