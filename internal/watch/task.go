// Package watch runs the cooperative background tasks: the overtime check,
// the auto-clockout sweep and anything else that repeats on an interval.
package watch

import (
	"context"
	"time"
)

// Every calls fn immediately and then on each tick until ctx is cancelled.
// fn receives a context detached from ctx's cancellation, so a tick that is
// already running finishes its store writes after shutdown begins.
func Every(ctx context.Context, interval time.Duration, fn func(context.Context)) error {
	if interval <= 0 {
		interval = time.Second
	}
	work := context.WithoutCancel(ctx)
	if ctx.Err() != nil {
		return nil
	}
	fn(work)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn(work)
		}
	}
}
