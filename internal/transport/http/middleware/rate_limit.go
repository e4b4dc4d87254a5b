package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	rateLimitProblemType  = "https://auth.chirpnet.example.com/errors/rate-limit-exceeded"
	rateLimitProblemTitle = "Rate Limit Exceeded"
)

// RateLimitStore defines the persistence operations required by the middleware.
type RateLimitStore interface {
	TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error
	CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error)
	RecordAttempt(ctx context.Context, identifier string, at time.Time) error
	OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error)
}

// IdentifierFunc extracts the identifier a limit is scoped to (e.g. client IP).
type IdentifierFunc func(*gin.Context) (string, bool)

// RateLimitRule configures one sliding-window limit.
type RateLimitRule struct {
	Name       string
	Limit      int
	Window     time.Duration
	Identifier IdentifierFunc
}

// RateLimiter evaluates sliding-window rules against a shared attempt store.
type RateLimiter struct {
	store  RateLimitStore
	logger *zap.Logger
	now    func() time.Time
}

// windowState is the outcome of evaluating one rule for one request.
type windowState struct {
	allowed    bool
	limit      int
	remaining  int
	reset      time.Time
	retryAfter time.Duration
}

// ProblemDetails is the RFC 9457 payload returned on 429 responses.
type ProblemDetails struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail"`
	Instance   string         `json:"instance"`
	RetryAfter int            `json:"retry_after"`
	TraceID    string         `json:"trace_id,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// NewRateLimiter builds a reusable rate limiter middleware helper.
func NewRateLimiter(store RateLimitStore, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RateLimiter{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock injects a custom clock. Tests pin the window edges with it.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// ClientIPIdentifier scopes a rule to the request's client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		return ip, ip != ""
	}
}

// RateLimit returns a middleware enforcing the provided rules. A request must
// pass every rule; the first exhausted one aborts with 429. Rules that cannot
// be evaluated (store error, no identifier) fail open.
func (rl *RateLimiter) RateLimit(rules ...RateLimitRule) gin.HandlerFunc {
	active := make([]RateLimitRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Identifier == nil || rule.Limit <= 0 || rule.Window <= 0 {
			continue
		}
		if rule.Name == "" {
			rule.Name = "default"
		}
		active = append(active, rule)
	}

	return func(c *gin.Context) {
		if len(active) == 0 || rl.store == nil {
			c.Next()
			return
		}

		now := rl.now()
		var reported *windowState

		for _, rule := range active {
			identifier, ok := rule.Identifier(c)
			if !ok || identifier == "" {
				continue
			}

			state, err := rl.evaluate(c.Request.Context(), rule, identifier, now)
			if err != nil {
				rl.logger.Warn("rate limit check failed",
					zap.String("rule", rule.Name),
					zap.String("identifier", identifier),
					zap.Error(err))
				continue
			}

			// Response headers reflect the strictest rule that applied.
			if reported == nil || stricter(*reported, state) {
				snapshot := state
				reported = &snapshot
			}

			if !state.allowed {
				rl.writeHeaders(c, state)
				rl.reject(c, state)
				return
			}
		}

		if reported != nil {
			rl.writeHeaders(c, *reported)
		}

		c.Next()
	}
}

// evaluate trims, counts, and on success records the attempt. The window
// resets relative to the oldest surviving attempt, so the store key is
// rule-scoped: "<rule>:<identifier>".
func (rl *RateLimiter) evaluate(ctx context.Context, rule RateLimitRule, identifier string, now time.Time) (windowState, error) {
	key := fmt.Sprintf("%s:%s", rule.Name, identifier)

	if err := rl.store.TrimWindow(ctx, key, rule.Window, now); err != nil {
		return windowState{}, err
	}

	count, err := rl.store.CountAttempts(ctx, key, rule.Window, now)
	if err != nil {
		return windowState{}, err
	}

	oldest, hasAttempts, err := rl.store.OldestAttempt(ctx, key, rule.Window, now)
	if err != nil {
		return windowState{}, err
	}

	reset := now.Add(rule.Window)
	if hasAttempts {
		reset = oldest.Add(rule.Window)
	}

	if count >= rule.Limit {
		return windowState{
			allowed:    false,
			limit:      rule.Limit,
			remaining:  0,
			reset:      reset,
			retryAfter: positive(reset.Sub(now)),
		}, nil
	}

	if err := rl.store.RecordAttempt(ctx, key, now); err != nil {
		return windowState{}, err
	}

	if !hasAttempts {
		// This attempt opened a fresh window.
		reset = now.Add(rule.Window)
	}

	return windowState{
		allowed:    true,
		limit:      rule.Limit,
		remaining:  max(rule.Limit-count-1, 0),
		reset:      reset,
		retryAfter: positive(reset.Sub(now)),
	}, nil
}

// stricter reports whether candidate should replace current as the state the
// response headers describe.
func stricter(current, candidate windowState) bool {
	if !candidate.allowed && current.allowed {
		return true
	}
	if candidate.allowed != current.allowed {
		return false
	}
	if candidate.remaining != current.remaining {
		return candidate.remaining < current.remaining
	}
	return candidate.reset.Before(current.reset)
}

func (rl *RateLimiter) writeHeaders(c *gin.Context, state windowState) {
	headers := c.Writer.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(state.limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(max(state.remaining, 0)))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(state.reset.Unix(), 10))

	if !state.allowed {
		headers.Set("Retry-After", strconv.Itoa(retrySeconds(state.retryAfter)))
	}
}

func (rl *RateLimiter) reject(c *gin.Context, state windowState) {
	seconds := retrySeconds(state.retryAfter)

	instance := c.FullPath()
	if instance == "" {
		instance = c.Request.URL.Path
	}

	c.AbortWithStatusJSON(http.StatusTooManyRequests, ProblemDetails{
		Type:       rateLimitProblemType,
		Title:      rateLimitProblemTitle,
		Status:     http.StatusTooManyRequests,
		Detail:     fmt.Sprintf("Too many requests. Try again in %d seconds.", seconds),
		Instance:   instance,
		RetryAfter: seconds,
		TraceID:    GetTraceID(c),
	})
}

func retrySeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 0)
}

func positive(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
