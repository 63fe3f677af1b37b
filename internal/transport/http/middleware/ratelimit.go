package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	resp "causebridge/internal/transport/http/response"
)

// RateLimit is one token bucket shared by every client.
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		resp.Abort(c, http.StatusTooManyRequests, "too many requests")
	}
}

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimitPerIP keeps a bucket per client address. Buckets idle for longer
// than idle are dropped on the next sweep.
func RateLimitPerIP(rps rate.Limit, burst int, idle time.Duration) gin.HandlerFunc {
	var (
		mu        sync.Mutex
		buckets   = make(map[string]*visitor)
		lastSweep = time.Now()
	)
	return func(c *gin.Context) {
		now := time.Now()
		ip := c.ClientIP()

		mu.Lock()
		if idle > 0 && now.Sub(lastSweep) > idle {
			for k, v := range buckets {
				if now.Sub(v.seen) > idle {
					delete(buckets, k)
				}
			}
			lastSweep = now
		}
		v, ok := buckets[ip]
		if !ok {
			v = &visitor{lim: rate.NewLimiter(rps, burst)}
			buckets[ip] = v
		}
		v.seen = now
		allowed := v.lim.AllowN(now, 1)
		mu.Unlock()

		if allowed {
			c.Next()
			return
		}
		resp.Abort(c, http.StatusTooManyRequests, "too many requests")
	}
}
