package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	block chan struct{}
	err   error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		<-j.block
	}
	return j.err
}

func TestAddJob_InvalidSpec(t *testing.T) {
	s := New()
	err := s.AddJob(&countingJob{name: "bad"}, "not a cron spec")
	assert.Error(t, err)
	assert.True(t, s.Next("bad").IsZero())
}

func TestAddJob_Next(t *testing.T) {
	s := New()
	require.NoError(t, s.AddJob(&countingJob{name: "hourly"}, "@hourly"))
	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return !s.Next("hourly").IsZero() }, time.Second, 10*time.Millisecond)
	assert.True(t, s.Next("hourly").After(time.Now()))
}

func TestAddJob_ReplacesByName(t *testing.T) {
	s := New()
	require.NoError(t, s.AddJob(&countingJob{name: "j"}, "@hourly"))
	require.NoError(t, s.AddJob(&countingJob{name: "j"}, "@daily"))
	assert.Len(t, s.cron.Entries(), 1)
}

func TestWrap_SkipsOverlappingRuns(t *testing.T) {
	s := New()
	job := &countingJob{name: "slow", block: make(chan struct{})}
	run := s.wrap(job, "@every 1s")

	done := make(chan struct{})
	go func() {
		run()
		close(done)
	}()
	assert.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	run() // skipped while the first run blocks
	assert.Equal(t, int32(1), job.runs.Load())

	close(job.block)
	<-done
	job.block = nil
	run()
	assert.Equal(t, int32(2), job.runs.Load())
}

func TestWrap_SkipsAfterCancel(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)
	defer s.Stop()

	job := &countingJob{name: "j"}
	s.wrap(job, "@hourly")()
	assert.Zero(t, job.runs.Load())
}

type stubIngest struct {
	report *domain.IngestReport
	err    error
	path   string
}

func (s *stubIngest) UploadFiles(context.Context, []domain.UploadFile) (*domain.IngestReport, error) {
	return nil, nil
}

func (s *stubIngest) ImportCMS(context.Context, domain.CMSImport) (int, error) { return 0, nil }

func (s *stubIngest) IngestFile(ctx context.Context, _, path string) (*domain.IngestReport, error) {
	return s.IngestPath(ctx, path)
}

func (s *stubIngest) IngestPath(_ context.Context, path string) (*domain.IngestReport, error) {
	s.path = path
	return s.report, s.err
}

func TestReindexJob(t *testing.T) {
	t.Run("ingests the directory", func(t *testing.T) {
		ingest := &stubIngest{report: &domain.IngestReport{
			Files: []domain.FileResult{
				{Filename: "a.txt", Indexed: 2},
				{Filename: "b.pdf", Err: errors.New("bad pdf")},
			},
			Indexed: 2,
		}}
		job := ReindexJob{Dir: "/docs", Ingest: ingest}

		assert.Equal(t, "reindex:/docs", job.Name())
		require.NoError(t, job.Run(context.Background()))
		assert.Equal(t, "/docs", ingest.path)
	})

	t.Run("propagates errors", func(t *testing.T) {
		job := ReindexJob{Dir: "/docs", Ingest: &stubIngest{err: errors.New("missing")}}
		assert.Error(t, job.Run(context.Background()))
	})
}
