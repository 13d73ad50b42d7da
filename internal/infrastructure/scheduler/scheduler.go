// Package scheduler runs the periodic background jobs.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one periodic unit of work. The returned count is whatever the
// job considers its unit (rows swept, notifications sent).
type Job interface {
	Name() string
	Run(ctx context.Context) (int, error)
}

// JobFunc adapts a function to the Job interface
type JobFunc struct {
	JobName string
	Fn      func(ctx context.Context) (int, error)
}

// Name returns the job name
func (j JobFunc) Name() string { return j.JobName }

// Run executes the job
func (j JobFunc) Run(ctx context.Context) (int, error) { return j.Fn(ctx) }

type entry struct {
	job    Job
	period time.Duration
}

// Scheduler drives registered jobs on their own tickers
type Scheduler struct {
	entries []entry
	logger  *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an empty scheduler
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logger.Named("scheduler")}
}

// Register adds a job with its period. Must be called before Start.
func (s *Scheduler) Register(job Job, period time.Duration) {
	s.entries = append(s.entries, entry{job: job, period: period})
}

// Start launches one goroutine per job. Each job also runs once at
// startup so a restart never delays a sweep by a full period.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	for _, e := range s.entries {
		s.wg.Add(1)
		go s.loop(ctx, e)
	}
}

func (s *Scheduler) loop(ctx context.Context, e entry) {
	defer s.wg.Done()

	s.runOnce(ctx, e.job)

	ticker := time.NewTicker(e.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, e.job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	start := time.Now()
	count, err := job.Run(ctx)
	if err != nil {
		s.logger.Error("job failed",
			zap.String("job", job.Name()),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("job completed",
		zap.String("job", job.Name()),
		zap.Int("processed", count),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// Stop cancels all jobs and waits for them to finish
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
