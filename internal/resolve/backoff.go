// File: internal/resolve/backoff.go
package resolve

import (
	"context"
	"time"
)

// Sleeper is an explicit suspension point. Injecting it lets tests run the
// retry loops in virtual time.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// realSleeper suspends on the wall clock, respecting cancellation.
type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Backoff is the retry policy for search-chain attempts. The interval is fixed and
// short: the dominant failure mode is client-side re-render, not server
// load, so exponential growth would only slow recovery down.
type Backoff struct {
	Interval time.Duration
	Attempts int
}

func (b Backoff) attempts() int {
	if b.Attempts <= 0 {
		return 1
	}
	return b.Attempts
}
