// Package clock provides the wall-clock implementation of driven.Clock.
package clock

import (
	"time"

	"github.com/custodia-labs/boardsync/internal/core/ports/driven"
)

// System is a driven.Clock backed by the time package.
type System struct{}

var _ driven.Clock = System{}

// Now returns the current time.
func (System) Now() time.Time {
	return time.Now()
}

// AfterFunc runs f in its own goroutine after d.
func (System) AfterFunc(d time.Duration, f func()) driven.Timer {
	return time.AfterFunc(d, f)
}

// NewTicker returns a ticker firing every d.
func (System) NewTicker(d time.Duration) driven.Ticker {
	return ticker{time.NewTicker(d)}
}

type ticker struct {
	t *time.Ticker
}

func (t ticker) C() <-chan time.Time { return t.t.C }

func (t ticker) Stop() { t.t.Stop() }
