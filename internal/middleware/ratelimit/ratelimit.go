package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/pulseo/internal/logging"
	"github.com/Skotchmaster/pulseo/internal/service"
	"github.com/Skotchmaster/pulseo/internal/transport"
)

const DefaultIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client IP.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	limit rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time
}

// New returns a limiter admitting perSecond requests per IP with the given
// burst. A non-positive rate disables limiting.
func New(perSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		ttl:      DefaultIdleTTL,
		now:      time.Now,
	}
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.limit > 0
}

func (l *Limiter) Allow(key string) bool {
	if !l.Enabled() {
		return true
	}
	now := l.now()

	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Evict forgets visitors idle for longer than the ttl and reports how many
// were removed.
func (l *Limiter) Evict() int {
	cutoff := l.now().Add(-l.ttl)

	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, k)
			n++
		}
	}
	return n
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Run evicts idle visitors every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	if !l.Enabled() {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Evict()
		}
	}
}

func (l *Limiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if l.Allow(c.RealIP()) {
			return next(c)
		}
		logging.FromContext(c.Request().Context()).Warn("rate_limited", "status", 429, "remote_ip", c.RealIP())
		return transport.NewAPIError(http.StatusTooManyRequests, service.CodeRateLimited, "Too many requests, try again later")
	}
}
