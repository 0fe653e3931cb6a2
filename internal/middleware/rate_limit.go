package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultReportRateLimit is the default number of report generations per minute per workspace
	DefaultReportRateLimit = 10
	// DefaultBurstSize is the default burst size
	DefaultBurstSize = 3
	// CleanupInterval is the interval for cleaning up stale limiters
	CleanupInterval = 5 * time.Minute
	// LimiterTTL is the time-to-live for inactive limiters
	LimiterTTL = 10 * time.Minute
)

// RateLimiter throttles expensive operations (report rendering) per workspace
type RateLimiter struct {
	limiters          map[int32]*limiterEntry
	mu                sync.Mutex
	requestsPerMinute int
	rateLimit         rate.Limit
	burstSize         int
	stopCh            chan struct{}
	stopOnce          sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter with the default report settings
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(DefaultReportRateLimit, DefaultBurstSize)
}

// NewRateLimiterWithConfig creates a RateLimiter with custom configuration
func NewRateLimiterWithConfig(requestsPerMinute int, burstSize int) *RateLimiter {
	if burstSize < 1 {
		burstSize = 1
	}
	rl := &RateLimiter{
		limiters:          make(map[int32]*limiterEntry),
		requestsPerMinute: requestsPerMinute,
		rateLimit:         rate.Limit(float64(requestsPerMinute) / 60.0),
		burstSize:         burstSize,
		stopCh:            make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow reports whether the workspace may proceed now
func (r *RateLimiter) Allow(workspaceID int32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entry(workspaceID).limiter.Allow()
}

// entry returns the workspace limiter, creating it on first use. Caller holds mu.
func (r *RateLimiter) entry(workspaceID int32) *limiterEntry {
	e, exists := r.limiters[workspaceID]
	if !exists {
		e = &limiterEntry{limiter: rate.NewLimiter(r.rateLimit, r.burstSize)}
		r.limiters[workspaceID] = e
	}
	e.lastSeen = time.Now()
	return e
}

// GetState returns the remaining burst and the time it is fully replenished
func (r *RateLimiter) GetState(workspaceID int32) (remaining int, resetTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.limiters[workspaceID]
	if !exists {
		return r.burstSize, time.Now()
	}

	tokens := int(e.limiter.Tokens())
	if tokens < 0 {
		tokens = 0
	}
	missing := float64(r.burstSize) - e.limiter.Tokens()
	if missing <= 0 || r.rateLimit <= 0 {
		return tokens, time.Now()
	}
	return tokens, time.Now().Add(time.Duration(missing / float64(r.rateLimit) * float64(time.Second)))
}

func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			now := time.Now()
			for workspaceID, e := range r.limiters {
				if now.Sub(e.lastSeen) > LimiterTTL {
					delete(r.limiters, workspaceID)
				}
			}
			r.mu.Unlock()
		case <-r.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RateLimitMiddleware throttles the wrapped routes per workspace. Requests without a workspace
// in context pass through; Authenticate must run first.
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			workspaceID := GetWorkspaceID(c)
			if workspaceID == 0 {
				return next(c)
			}

			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMinute))

			if !rl.Allow(workspaceID) {
				_, resetTime := rl.GetState(workspaceID)
				retryAfter := int(time.Until(resetTime).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}

				header.Set("X-RateLimit-Remaining", "0")
				header.Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))
				header.Set("Retry-After", strconv.Itoa(retryAfter))

				log.Warn().
					Int32("workspace_id", workspaceID).
					Int("retry_after", retryAfter).
					Msg("Report rate limit exceeded")

				return rateLimitError(c, fmt.Sprintf("Too many requests. Please retry after %d seconds.", retryAfter))
			}

			remaining, resetTime := rl.GetState(workspaceID)
			header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			header.Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			return next(c)
		}
	}
}
