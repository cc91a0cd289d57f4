package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	RPS   float64
	Burst int
	// IdleTTL drops limiters of clients not seen for this long. Zero keeps them forever.
	IdleTTL time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per key.
type Limiter struct {
	mu        sync.Mutex
	cfg       RateLimitConfig
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

// NewLimiter creates a keyed limiter.
func NewLimiter(cfg RateLimitConfig) *Limiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Limiter{cfg: cfg, visitors: make(map[string]*visitor), lastSweep: time.Now(), now: time.Now}
}

// Allow reports whether one more request from key fits its bucket.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	if l.cfg.IdleTTL > 0 && now.Sub(l.lastSweep) > l.cfg.IdleTTL {
		l.lastSweep = now
		for k, other := range l.visitors {
			if now.Sub(other.lastSeen) > l.cfg.IdleTTL {
				delete(l.visitors, k)
			}
		}
	}
	l.mu.Unlock()
	return v.limiter.AllowN(now, 1)
}

// RateLimit rejects requests over the per-IP budget with 429.
func RateLimit(l *Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": http.StatusText(http.StatusTooManyRequests),
					"data": []map[string]string{{
						"code":    "ERR_RATE_LIMITED",
						"message": "rate limit exceeded",
					}},
				})
			}
			return next(c)
		}
	}
}
