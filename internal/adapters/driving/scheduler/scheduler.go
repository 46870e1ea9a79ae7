// Package scheduler runs periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/custodia-labs/ragline/internal/core/ports/driving"
	"github.com/custodia-labs/ragline/internal/logger"
)

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs jobs on standard five-field cron specs.
type Scheduler struct {
	cron *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	entries map[string]cron.EntryID
}

// New creates a stopped scheduler.
func New() *Scheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Scheduler{
		cron:    cron.New(cron.WithParser(parser)),
		ctx:     context.Background(),
		entries: make(map[string]cron.EntryID),
	}
}

// AddJob schedules job. Adding a job under an existing name replaces it.
func (s *Scheduler) AddJob(job Job, spec string) error {
	log := logger.L().With(zap.String("job", job.Name()), zap.String("spec", spec))

	id, err := s.cron.AddFunc(spec, s.wrap(job, spec))
	if err != nil {
		log.Error("schedule job failed", zap.Error(err))
		return fmt.Errorf("schedule %s: %w", job.Name(), err)
	}

	s.mu.Lock()
	if old, ok := s.entries[job.Name()]; ok {
		s.cron.Remove(old)
	}
	s.entries[job.Name()] = id
	s.mu.Unlock()

	log.Info("job scheduled")
	return nil
}

// Start runs jobs in the background with ctx until Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Next returns the next run time of the named job, or the zero time.
func (s *Scheduler) Next(name string) time.Time {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// wrap skips a run while the previous one is still going.
func (s *Scheduler) wrap(job Job, spec string) func() {
	var running atomic.Bool
	return func() {
		log := logger.L().With(zap.String("job", job.Name()), zap.String("spec", spec))
		if !running.CompareAndSwap(false, true) {
			log.Info("job skipped: still running")
			return
		}
		defer running.Store(false)

		ctx := s.context()
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		err := job.Run(ctx)
		elapsed := time.Since(start)
		if err != nil {
			log.Error("job finished", zap.Error(err), zap.Duration("duration", elapsed))
			return
		}
		log.Info("job finished", zap.Duration("duration", elapsed))
	}
}

// ReindexJob re-ingests a directory. Point identities are deterministic,
// so unchanged files overwrite their own passages.
type ReindexJob struct {
	Dir    string
	Ingest driving.IngestService
}

// Name implements Job.
func (j ReindexJob) Name() string { return "reindex:" + j.Dir }

// Run implements Job.
func (j ReindexJob) Run(ctx context.Context) error {
	report, err := j.Ingest.IngestPath(ctx, j.Dir)
	if err != nil {
		return err
	}
	if failed := report.Failed(); len(failed) > 0 {
		logger.L().Warn("reindex completed with failures",
			zap.String("dir", j.Dir),
			zap.Int("failed", len(failed)),
			zap.Int("files", len(report.Files)))
	}
	logger.L().Info("reindexed", zap.String("dir", j.Dir), zap.Int("passages", report.Indexed))
	return nil
}
