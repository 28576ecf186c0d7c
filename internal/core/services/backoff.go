package services

import (
	"math/rand/v2"
	"time"

	"github.com/custodia-labs/boardsync/internal/core/domain"
)

// Backoff computes when a failed operation may be attempted again.
type Backoff struct {
	settings domain.BackoffSettings
	interval time.Duration
	jitter   func() float64
}

// NewBackoff creates a backoff for the given settings. interval is the sync
// interval and the base of the exponential policy.
func NewBackoff(settings domain.BackoffSettings, interval time.Duration) *Backoff {
	return &Backoff{
		settings: settings,
		interval: interval,
		jitter:   rand.Float64,
	}
}

// Delay returns the wait before the next attempt of an operation that has
// failed attempts times. Zero means the next scheduled pass.
func (b *Backoff) Delay(attempts int) time.Duration {
	if b.settings.Policy != domain.BackoffExponential || attempts < 1 {
		return 0
	}

	d := b.interval
	for i := 1; i < attempts; i++ {
		d *= 2
		if b.settings.Max > 0 && d >= b.settings.Max {
			d = b.settings.Max
			break
		}
	}
	if b.settings.Max > 0 && d > b.settings.Max {
		d = b.settings.Max
	}

	if b.settings.Jitter > 0 {
		// Spread uniformly over [d*(1-j), d*(1+j)].
		spread := (b.jitter()*2 - 1) * b.settings.Jitter
		d = time.Duration(float64(d) * (1 + spread))
	}
	return d
}

// NotBefore returns the backoff deadline after a failure at now, or nil when
// the operation may run on the next pass.
func (b *Backoff) NotBefore(now time.Time, attempts int) *time.Time {
	d := b.Delay(attempts)
	if d <= 0 {
		return nil
	}
	at := now.Add(d)
	return &at
}
