// Package worker drives periodic tasks. The tasks themselves are plain
// idempotent functions; this package only owns the timer.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// PeriodicTask is a named function invoked on an interval. Run must be safe
// to call concurrently with other invocations of itself (the daily rate
// refresh relies on the store's uniqueness constraint for that).
type PeriodicTask struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// RunPeriodic executes the task once immediately, then on every interval
// tick until the context is cancelled. Task errors are logged, not fatal:
// the next tick retries.
func RunPeriodic(ctx context.Context, task PeriodicTask) {
	runOnce(ctx, task)

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Periodic task stopped", "task", task.Name)
			return
		case <-ticker.C:
			runOnce(ctx, task)
		}
	}
}

func runOnce(ctx context.Context, task PeriodicTask) {
	start := time.Now()
	if err := task.Run(ctx); err != nil {
		slog.ErrorContext(ctx, "Periodic task failed",
			"task", task.Name,
			"error", err,
			"duration", time.Since(start).String())
		return
	}
	slog.InfoContext(ctx, "Periodic task completed",
		"task", task.Name,
		"duration", time.Since(start).String())
}
