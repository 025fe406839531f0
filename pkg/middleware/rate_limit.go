package middleware

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paperfix/paperfix/backend/go-services/internal/session"
	"github.com/paperfix/paperfix/backend/go-services/pkg/metrics"
	"golang.org/x/time/rate"
)

// limiterKey prefers the authenticated subject (NAT-friendly per-user limiting)
// and falls back to the client IP.
func limiterKey(c *gin.Context) string {
	if s, ok := session.From(c); ok {
		return "sub:" + s.UserID
	}
	if v, ok := c.Get("claims"); ok {
		if cm, ok2 := v.(map[string]interface{}); ok2 {
			if sub, ok3 := cm["sub"].(string); ok3 && sub != "" {
				return "sub:" + sub
			}
		}
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// limiterIdleTTL is how long an untouched bucket is kept. An idle bucket has
// refilled long before that, so dropping it does not change any decision.
var limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	lim  *rate.Limiter
	seen atomic.Int64 // unix nanos of the last request
}

// limiterSet holds one bucket per key and sweeps idle ones at most once per TTL.
type limiterSet struct {
	rps   rate.Limit
	burst int
	now   func() time.Time

	entries   sync.Map // map[string]*limiterEntry
	mu        sync.Mutex
	lastSweep time.Time
}

func newLimiterSet(rps float64, burst int) *limiterSet {
	return &limiterSet{rps: rate.Limit(rps), burst: burst, now: time.Now, lastSweep: time.Now()}
}

func (l *limiterSet) get(key string) *rate.Limiter {
	now := l.now()
	l.sweep(now)
	v, ok := l.entries.Load(key)
	if !ok {
		v, _ = l.entries.LoadOrStore(key, &limiterEntry{lim: rate.NewLimiter(l.rps, l.burst)})
	}
	e := v.(*limiterEntry)
	e.seen.Store(now.UnixNano())
	return e.lim
}

func (l *limiterSet) sweep(now time.Time) {
	l.mu.Lock()
	if now.Sub(l.lastSweep) < limiterIdleTTL {
		l.mu.Unlock()
		return
	}
	l.lastSweep = now
	l.mu.Unlock()

	cutoff := now.Add(-limiterIdleTTL).UnixNano()
	l.entries.Range(func(k, v any) bool {
		if v.(*limiterEntry).seen.Load() < cutoff {
			l.entries.Delete(k)
		}
		return true
	})
}

func (l *limiterSet) size() int {
	n := 0
	l.entries.Range(func(any, any) bool { n++; return true })
	return n
}

// RateLimitMiddleware returns a Gin middleware enforcing a token-bucket per-key limit.
// rps = allowed events per second, burst = maximum tokens in bucket. Each returned
// middleware keeps its own buckets, so the global and AI limiters do not share budgets.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	return newLimiterSet(rps, burst).middleware()
}

func (l *limiterSet) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.get(limiterKey(c)).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
