package httpapi

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

var errRateLimited = errors.New("rate limit exceeded")

// CallerLimiter keeps one token bucket per caller identity. Identity comes
// from the X-Caller-ID header, supplied upstream by the auth layer; requests
// without one share the anonymous bucket.
type CallerLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func NewCallerLimiter(rps float64, burst int) *CallerLimiter {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = int(rps)
	}
	return &CallerLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *CallerLimiter) limiterFor(caller string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.limiters[caller]
	if !ok {
		limiter = rate.NewLimiter(l.rps, l.burst)
		l.limiters[caller] = limiter
	}
	return limiter
}

// Allow reports whether the caller may proceed right now.
func (l *CallerLimiter) Allow(caller string) bool {
	return l.limiterFor(caller).Allow()
}

func (l *CallerLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := c.GetHeader("X-Caller-ID")
		if caller == "" {
			caller = "anonymous"
		}
		if !l.Allow(caller) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: errRateLimited.Error()})
			return
		}
		c.Next()
	}
}
