// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
)

// Job is one periodic task. Run is called once at start and then every
// Interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs jobs on their own tickers until stopped.
type Scheduler struct {
	jobs     []Job
	logger   *logger.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

func New(logger *logger.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:     jobs,
		logger:   logger.WithComponent("scheduler"),
		stopChan: make(chan struct{}),
	}
}

// Start launches every job with a positive interval.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		if job.Interval <= 0 {
			s.logger.Infow("Job disabled", "job", job.Name)
			continue
		}
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()
	s.logger.Infow("Job scheduled", "job", job.Name, "interval", job.Interval.String())

	s.runOnce(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx, job)
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Errorw("Job failed", "job", job.Name, "error", err)
		return
	}
	s.logger.Debugw("Job finished", "job", job.Name, "duration", time.Since(start).String())
}

// Stop halts all jobs and waits for running ones to return.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stopChan) })
	s.wg.Wait()
}
