package middleware

import (
	"strconv"
	"sync"
	"time"

	"carenest/pkg/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per caller (user id, else client IP).
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	r        rate.Limit
	b        int
}

func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 10
	}
	return &RateLimiter{
		limiters: make(map[string]*keyedLimiter),
		r:        rate.Limit(float64(requestsPerMinute) / 60.0),
		b:        requestsPerMinute,
	}
}

func (l *RateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.limiters[key]
	if !ok {
		entry = &keyedLimiter{limiter: rate.NewLimiter(l.r, l.b)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now

	if len(l.limiters) > 10_000 {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > 10*time.Minute {
				delete(l.limiters, k)
			}
		}
	}
	return entry.limiter
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("user_id")
		if key == "" {
			key = c.ClientIP()
		}

		reservation := l.get(key).Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
			utils.HandleServiceError(c, utils.ErrTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
