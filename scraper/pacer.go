package scraper

import (
	"context"
	"time"
)

// Pacer enforces the polite delays between pages and categories.
type Pacer interface {
	Wait(ctx context.Context, d time.Duration) error
}

// SleepPacer waits on the wall clock.
type SleepPacer struct{}

// Wait blocks for d or until ctx is done.
func (SleepPacer) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
