// Package scheduler runs the sync server's maintenance jobs on cron
// schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/streaklit/internal/backup"
	"github.com/julianstephens/streaklit/internal/logger"
	"github.com/julianstephens/streaklit/internal/tracker"
)

const defaultJobTimeout = 10 * time.Minute

// Job is a named unit of work run on a cron spec.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	loc     *time.Location
	timeout time.Duration

	mu      sync.Mutex
	entries map[string]cron.EntryID
	jobs    map[string]Job
	ctx     context.Context
	cancel  context.CancelFunc
}

type Option func(*Scheduler)

// WithLocation interprets cron specs in loc.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.loc = loc }
}

// WithJobTimeout bounds a single run of any job.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

func New(opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		loc:     time.Local,
		timeout: defaultJobTimeout,
		entries: make(map[string]cron.EntryID),
		jobs:    make(map[string]Job),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = cron.New(
		cron.WithLocation(s.loc),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)
	return s
}

// Add registers a job. A job with an empty spec is skipped.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job needs a name and a run function")
	}
	if job.Spec == "" {
		logger.Info("Job disabled", "job", job.Name)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.jobs[job.Name]; dup {
		return fmt.Errorf("job %q already registered", job.Name)
	}
	id, err := s.cron.AddFunc(job.Spec, func() { _ = s.run(job) })
	if err != nil {
		return fmt.Errorf("invalid schedule for %s: %w", job.Name, err)
	}
	s.entries[job.Name] = id
	s.jobs[job.Name] = job
	return nil
}

// Jobs returns the registered job names, sorted.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Next returns the next activation of a job.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	entry := s.cron.Entry(id)
	if !entry.Valid() {
		return time.Time{}, false
	}
	if entry.Next.IsZero() {
		// not started yet
		return entry.Schedule.Next(time.Now().In(s.loc)), true
	}
	return entry.Next, true
}

// RunNow runs a registered job synchronously.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return s.run(job)
}

func (s *Scheduler) run(job Job) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	start := time.Now()
	err := job.Run(ctx)
	if err != nil {
		logger.Error("Job failed", "job", job.Name, "duration", time.Since(start), "error", err)
		return err
	}
	logger.Info("Job finished", "job", job.Name, "duration", time.Since(start))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PruneJob deletes records older than the tracker's retention window.
func PruneJob(spec string, tr *tracker.Tracker) Job {
	return Job{
		Name: "prune",
		Spec: spec,
		Run: func(ctx context.Context) error {
			_, err := tr.Prune(ctx)
			return err
		},
	}
}

// BackupJob snapshots the SQLite database through mgr. Stopping the
// scheduler aborts a backup in progress.
func BackupJob(spec string, mgr *backup.Manager) Job {
	return Job{
		Name: "backup",
		Spec: spec,
		Run: func(ctx context.Context) error {
			_, err := mgr.CreateBackupContext(ctx)
			return err
		},
	}
}

// cronLogger adapts the package logger to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error(msg, append(keysAndValues, "error", err)...)
}
