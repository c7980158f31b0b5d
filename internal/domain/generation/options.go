package generation

import (
	"context"
	"time"

	"github.com/ganot/quotagate/internal/clock"
)

// DefaultDelay is the pause between consecutive attempts of a run.
const DefaultDelay = 2 * time.Second

// Options tune an Orchestrator. Zero values select the defaults.
type Options struct {
	Delay time.Duration
	// Sleep suspends for d or until ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
	Clock clock.Clock
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
