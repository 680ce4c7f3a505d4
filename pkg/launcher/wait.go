package launcher

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/directus-ops/cmsctl/pkg/directus"
)

// HealthChecker is the part of the Directus client used to poll readiness.
type HealthChecker interface {
	Health(ctx context.Context) (*directus.Health, error)
}

// Waiter polls /server/health until the instance answers.
type Waiter struct {
	Client   HealthChecker
	Retries  int
	Interval time.Duration
	// Progress receives a dot per failed attempt. Nil discards it.
	Progress io.Writer
}

// Wait returns nil as soon as a health check succeeds.
func (w Waiter) Wait(ctx context.Context) error {
	progress := w.Progress
	if progress == nil {
		progress = io.Discard
	}

	var lastErr error
	for i := 0; i < w.Retries; i++ {
		_, err := w.Client.Health(ctx)
		if err == nil {
			if i > 0 {
				fmt.Fprintln(progress)
			}
			return nil
		}
		lastErr = err

		fmt.Fprint(progress, ".")
		select {
		case <-ctx.Done():
			fmt.Fprintln(progress)
			return ctx.Err()
		case <-time.After(w.Interval):
		}
	}

	fmt.Fprintln(progress)
	return fmt.Errorf("not ready after %d attempts: %w", w.Retries, lastErr)
}
