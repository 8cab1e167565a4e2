package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rckrdmrd/glit-backend-sub002/apperr"
	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client IP.
type Limiter struct {
	mu      sync.Mutex
	r       rate.Limit
	b       int
	buckets map[string]*bucket
	now     func() time.Time
}

// NewLimiter creates a Limiter allowing r requests per second with burst b.
func NewLimiter(r rate.Limit, b int) *Limiter {
	return &Limiter{r: r, b: b, buckets: make(map[string]*bucket), now: time.Now}
}

// Reserve takes a token for key. It returns zero when the request may
// proceed, otherwise how long the client should wait.
func (l *Limiter) Reserve(key string) time.Duration {
	l.mu.Lock()
	bk, ok := l.buckets[key]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(l.r, l.b)}
		l.buckets[key] = bk
	}
	now := l.now()
	bk.lastSeen = now
	l.mu.Unlock()

	res := bk.limiter.ReserveN(now, 1)
	if !res.OK() {
		return time.Duration(math.MaxInt64)
	}
	if d := res.DelayFrom(now); d > 0 {
		res.CancelAt(now)
		return d
	}
	return 0
}

// Sweep drops buckets idle for longer than idle and returns how many went.
func (l *Limiter) Sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, bk := range l.buckets {
		if bk.lastSeen.Before(cutoff) {
			delete(l.buckets, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Middleware rejects clients over their budget with 429 and Retry-After.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if wait := l.Reserve(c.ClientIP()); wait > 0 {
			secs := int64(math.Ceil(wait.Seconds()))
			if secs <= 0 || wait == time.Duration(math.MaxInt64) {
				secs = 1
			}
			c.Header("Retry-After", strconv.FormatInt(secs, 10))
			abort(c, http.StatusTooManyRequests, apperr.CodeRateLimited, "rate limit exceeded")
			return
		}
		c.Next()
	}
}

// RateLimit is a shorthand for NewLimiter(r, b).Middleware() when the
// buckets never need sweeping.
func RateLimit(r rate.Limit, b int) gin.HandlerFunc {
	return NewLimiter(r, b).Middleware()
}
