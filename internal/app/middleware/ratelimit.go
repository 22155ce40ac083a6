package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/time/rate"

	"github.com/freytube/freytube/internal/config"
	"github.com/freytube/freytube/internal/core/constants"
	"github.com/freytube/freytube/internal/logger"
)

const (
	staleLimiterAge        = 10 * time.Minute
	rateLimitedBody        = `{"error":"rate limit exceeded","retryable":true}`
	defaultCleanupInterval = 5 * time.Minute
)

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64
}

// Decision is the outcome of one rate limit check
type Decision struct {
	RetryAfter time.Duration
	Limit      int
	Remaining  int
	Allowed    bool
}

// RateLimiter is a per-client token bucket in front of the catalog API
type RateLimiter struct {
	clients   *xsync.Map[string, *clientLimiter]
	logger    *logger.StyledLogger
	stop      chan struct{}
	now       func() time.Time
	perMinute int
	burst     int
	interval  time.Duration
	stopOnce  sync.Once
}

func NewRateLimiter(cfg config.RateLimitConfig, log *logger.StyledLogger) *RateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	return &RateLimiter{
		clients:   xsync.NewMap[string, *clientLimiter](),
		logger:    log,
		stop:      make(chan struct{}),
		now:       time.Now,
		perMinute: cfg.RequestsPerMinute,
		burst:     burst,
		interval:  interval,
	}
}

func (rl *RateLimiter) Enabled() bool {
	return rl != nil && rl.perMinute > 0
}

// Allow takes one token for client
func (rl *RateLimiter) Allow(client string) Decision {
	now := rl.now()
	entry, _ := rl.clients.LoadOrCompute(client, func() (*clientLimiter, bool) {
		return &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(rl.perMinute)/60.0), rl.burst),
		}, false
	})
	entry.lastAccess.Store(now.UnixNano())

	reservation := entry.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return Decision{Limit: rl.perMinute, RetryAfter: delay}
	}

	remaining := int(math.Floor(entry.limiter.TokensAt(now)))
	return Decision{Allowed: true, Limit: rl.perMinute, Remaining: max(remaining, 0)}
}

// Cleanup drops clients idle since before cutoff and returns how many went
func (rl *RateLimiter) Cleanup(cutoff time.Time) int {
	removed := 0
	rl.clients.Range(func(client string, entry *clientLimiter) bool {
		if entry.lastAccess.Load() < cutoff.UnixNano() {
			rl.clients.Delete(client)
			removed++
		}
		return true
	})
	return removed
}

// Start runs the idle client sweep until Stop
func (rl *RateLimiter) Start() {
	if !rl.Enabled() {
		return
	}
	ticker := time.NewTicker(rl.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-rl.stop:
				return
			case <-ticker.C:
				if removed := rl.Cleanup(rl.now().Add(-staleLimiterAge)); removed > 0 {
					rl.logger.Debug("Dropped idle rate limiters", "count", removed)
				}
			}
		}
	}()
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Middleware enforces the limit and always sets the X-RateLimit headers.
// Health checks are never limited.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !rl.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == constants.DefaultHealthCheckEndpoint {
				next.ServeHTTP(w, r)
				return
			}

			client := clientKey(r)
			decision := rl.Allow(client)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(rateLimitedBody))

				rl.logger.Warn("Rate limit exceeded",
					"client", client,
					"method", r.Method,
					"path", r.URL.Path,
					"retry_after", retryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
