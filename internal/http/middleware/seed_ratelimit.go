package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// SeedRateLimit caps dataset reloads across all callers. Unlike the API
// limiter the window is shared, not per IP.
func SeedRateLimit(client RedisCounter, maxRuns int, window time.Duration) gin.HandlerFunc {
	key := "seed_rl:" + strconv.FormatInt(int64(window.Seconds()), 10)

	var mu sync.Mutex
	var start time.Time
	var runs int

	return func(c *gin.Context) {
		var allowed bool
		if client != nil {
			ok, err := hit(c.Request.Context(), client, key, maxRuns, window)
			if err != nil {
				c.Header("X-RateLimit-Error", "redis-error")
				c.Next()
				return
			}
			allowed = ok
		} else {
			now := time.Now()
			mu.Lock()
			if now.Sub(start) > window {
				start = now
				runs = 0
			}
			runs++
			allowed = runs <= maxRuns
			mu.Unlock()
		}

		if !allowed {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "seed rate limit exceeded"})
			return
		}
		c.Next()
	}
}
