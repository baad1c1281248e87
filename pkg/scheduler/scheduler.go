package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// JobFunc is one unit of scheduled maintenance.
type JobFunc func(ctx context.Context) error

// Job describes a registered job.
type Job struct {
	Name     string
	Schedule string
	Next     time.Time
	LastRun  time.Time
	LastErr  error
}

type job struct {
	name     string
	schedule string
	fn       JobFunc
	id       cron.EntryID

	lastRun time.Time
	lastErr error
}

// Scheduler runs named maintenance jobs on cron schedules. Jobs with an
// empty schedule are skipped, so optional work (periodic processing) can be
// registered unconditionally.
type Scheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	jobs    map[string]*job
	running bool
}

// New creates a scheduler. Jobs run one at a time per job; a job still
// running when its next tick arrives is skipped.
func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
		logger: slog.Default().With("component", "scheduler"),
		jobs:   make(map[string]*job),
	}
}

// Add registers fn under name. An empty schedule is a no-op.
//
// Common cron expressions:
//   - "@hourly"      - Every hour
//   - "*/5 * * * *"  - Every 5 minutes
//   - "0 3 * * *"    - Daily at 3 AM
func (s *Scheduler) Add(name, schedule string, fn JobFunc) error {
	if schedule == "" {
		s.logger.Info("schedule not configured, skipping job", "job", name)
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q for job %q: %w", schedule, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	j := &job{name: name, schedule: schedule, fn: fn}
	s.jobs[name] = j
	return nil
}

// Start schedules every registered job and starts the cron runner. The
// scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if len(s.jobs) == 0 {
		s.logger.Info("no jobs configured, skipping scheduler")
		return nil
	}

	for _, j := range s.jobs {
		j := j
		id, err := s.cron.AddFunc(j.schedule, func() {
			s.run(ctx, j)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule job %q: %w", j.name, err)
		}
		j.id = id
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("scheduler started", "jobs", len(s.jobs))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunNow runs the named job immediately on the calling goroutine.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %q not found", name)
	}
	return s.run(ctx, j)
}

func (s *Scheduler) run(ctx context.Context, j *job) error {
	start := time.Now()
	s.logger.Debug("starting scheduled job", "job", j.name)

	err := j.fn(ctx)

	s.mu.Lock()
	j.lastRun = start
	j.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled job failed", "job", j.name, "error", err)
		return err
	}
	s.logger.Debug("scheduled job completed", "job", j.name, "duration", time.Since(start))
	return nil
}

// Stop stops the scheduler and waits for any running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled run of the named job, or nil when the
// job is unknown or the scheduler is not running.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok || !s.running {
		return nil
	}
	next := s.cron.Entry(j.id).Next
	if next.IsZero() {
		return nil
	}
	return &next
}

// Jobs lists the registered jobs sorted by name.
func (s *Scheduler) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		entry := Job{
			Name:     j.name,
			Schedule: j.schedule,
			LastRun:  j.lastRun,
			LastErr:  j.lastErr,
		}
		if s.running {
			entry.Next = s.cron.Entry(j.id).Next
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}
