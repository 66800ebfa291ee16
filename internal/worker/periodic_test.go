package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunPeriodicRunsImmediatelyAndOnTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan struct{}, 16)
	done := make(chan struct{})
	go func() {
		RunPeriodic(ctx, PeriodicTask{
			Name:     "test",
			Interval: 10 * time.Millisecond,
			Run: func(ctx context.Context) error {
				ran <- struct{}{}
				return nil
			},
		})
		close(done)
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-ran:
		case <-time.After(2 * time.Second):
			t.Fatalf("run %d never happened", i+1)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunPeriodic did not stop on cancel")
	}
}

func TestRunPeriodicSurvivesTaskErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan struct{}, 16)
	go RunPeriodic(ctx, PeriodicTask{
		Name:     "failing",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			ran <- struct{}{}
			return errors.New("transient")
		},
	})

	// The task keeps being scheduled after failures.
	for i := 0; i < 2; i++ {
		select {
		case <-ran:
		case <-time.After(2 * time.Second):
			t.Fatalf("run %d never happened after an error", i+1)
		}
	}
}
