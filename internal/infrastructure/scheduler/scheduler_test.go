package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
)

func TestSchedulerRunsJobImmediatelyAndRepeats(t *testing.T) {
	var runs atomic.Int32
	s := New(logger.NewNop(), Job{
		Name:     "count",
		Interval: 5 * time.Millisecond,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	s.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	s.Stop()

	if got := runs.Load(); got < 3 {
		t.Fatalf("expected at least 3 runs, got %d", got)
	}
}

func TestSchedulerSkipsDisabledJobs(t *testing.T) {
	var runs atomic.Int32
	s := New(logger.NewNop(), Job{
		Name: "disabled",
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})
	s.Start(context.Background())
	s.Stop()

	if runs.Load() != 0 {
		t.Fatalf("disabled job ran %d times", runs.Load())
	}
}

func TestSchedulerKeepsRunningAfterFailure(t *testing.T) {
	var runs atomic.Int32
	s := New(logger.NewNop(), Job{
		Name:     "flaky",
		Interval: 5 * time.Millisecond,
		Run: func(context.Context) error {
			runs.Add(1)
			return errors.New("boom")
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	s.Stop()
	s.Stop()

	if runs.Load() < 2 {
		t.Fatalf("expected the job to run again after failing, got %d runs", runs.Load())
	}
}
