package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/boardsync/internal/core/domain"
	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
	"github.com/custodia-labs/boardsync/internal/logger"
)

// DefaultRetryAfter is the pause applied after a 429 without Retry-After.
const DefaultRetryAfter = 30 * time.Second

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimit is used when the configuration leaves the rate unset.
var DefaultRateLimit = RateLimitConfig{RequestsPerSecond: 5, BurstSize: 10}

// RateLimiter is a token bucket with a pause set by 429 responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter. Non-positive values fall back to
// DefaultRateLimit.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRateLimit.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultRateLimit.BurstSize
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		now:     time.Now,
	}
}

// Wait blocks until a request may be sent. A pending 429 pause is not
// waited out: Wait fails fast so the operation stays queued for a later pass.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if until := r.pausedFor(); until > 0 {
		return &PausedError{Remaining: until}
	}
	return r.limiter.Wait(ctx)
}

// Allow checks if a request can be made immediately without blocking.
func (r *RateLimiter) Allow() bool {
	if r.pausedFor() > 0 {
		return false
	}
	return r.limiter.Allow()
}

// RecordRateLimitError pauses all requests for retryAfter.
func (r *RateLimiter) RecordRateLimitError(retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = DefaultRetryAfter
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if at := r.now().Add(retryAfter); at.After(r.retryAt) {
		r.retryAt = at
	}
}

func (r *RateLimiter) pausedFor() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryAt.Sub(r.now())
}

// PausedError is returned while the remote has asked the client to back off.
type PausedError struct {
	Remaining time.Duration
}

func (e *PausedError) Error() string {
	return "rate limited by remote, paused for " + e.Remaining.Round(time.Second).String()
}

// Unwrap lets the engine treat the pause as a transient remote failure.
func (e *PausedError) Unwrap() error {
	return domain.ErrGatewayUnavailable
}

// RateLimited decorates a RemoteGateway with a RateLimiter.
type RateLimited struct {
	next    driven.RemoteGateway
	limiter *RateLimiter
}

var _ driven.RemoteGateway = (*RateLimited)(nil)

// NewRateLimited wraps next.
func NewRateLimited(next driven.RemoteGateway, limiter *RateLimiter) *RateLimited {
	return &RateLimited{next: next, limiter: limiter}
}

// Create waits for a token and forwards the call.
func (g *RateLimited) Create(ctx context.Context, req domain.CreateRequest) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	id, err := g.next.Create(ctx, req)
	g.observe(err)
	return id, err
}

// Update waits for a token and forwards the call.
func (g *RateLimited) Update(ctx context.Context, req domain.UpdateRequest) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	err := g.next.Update(ctx, req)
	g.observe(err)
	return err
}

// Delete waits for a token and forwards the call.
func (g *RateLimited) Delete(ctx context.Context, targetID string) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	err := g.next.Delete(ctx, targetID)
	g.observe(err)
	return err
}

func (g *RateLimited) observe(err error) {
	var serr *StatusError
	if errors.As(err, &serr) && IsRateLimited(serr) {
		logger.Info("remote rate limit hit, pausing for %s", serr.RetryAfter)
		g.limiter.RecordRateLimitError(serr.RetryAfter)
	}
}
