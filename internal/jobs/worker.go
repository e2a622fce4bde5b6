// Package jobs runs bulk ingests out-of-band. The triggering request only
// enqueues a job record and returns its ID; the worker drains queued jobs
// in fixed-size batches, advancing the job's monotonic progress counters
// after each batch so a polling client sees processed/succeeded/failed only
// ever increase. A job runs to completion or failure; there is no
// cancellation.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/jonathanduvan/gov-reach/internal/domain"
	"github.com/jonathanduvan/gov-reach/internal/repo"
	"github.com/jonathanduvan/gov-reach/internal/services"
)

// Worker polls for queued ingest jobs and processes them.
type Worker struct {
	DB           *gorm.DB
	Ingest       *services.IngestService
	BatchSize    int
	PollInterval time.Duration
}

// NewWorker builds a worker with sane defaults.
func NewWorker(db *gorm.DB, ingest *services.IngestService, batchSize int, poll time.Duration) *Worker {
	if batchSize < 1 {
		batchSize = 25
	}
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &Worker{DB: db, Ingest: ingest, BatchSize: batchSize, PollInterval: poll}
}

// Enqueue records a new queued job and returns it immediately.
func (w *Worker) Enqueue(ctx context.Context, rows []map[string]any, actor domain.Identity) (*domain.IngestJob, error) {
	if len(rows) == 0 {
		return nil, &services.ValidationError{Messages: []string{"no rows to ingest"}}
	}
	return repo.CreateJob(ctx, w.DB, rows, actor)
}

// Job fetches a job's progress record.
func (w *Worker) Job(ctx context.Context, id string) (*domain.IngestJob, error) {
	job, err := repo.GetJob(ctx, w.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, services.ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// Run drains the queue until ctx is done. Intended to be launched as a
// goroutine from main.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for w.runOne(ctx) {
				// keep draining while there is queued work
			}
		}
	}
}

// runOne claims and processes at most one job; reports whether it did work.
func (w *Worker) runOne(ctx context.Context) bool {
	job, err := repo.ClaimNextQueuedJob(ctx, w.DB)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			log.Error().Err(err).Msg("claim ingest job")
		}
		return false
	}

	lg := log.With().Str("job_id", job.ID).Int("total", job.Total).Logger()
	lg.Info().Msg("ingest job started")

	actor := domain.Identity{Email: job.SubmitterEmail, Role: job.SubmitterRole}
	if err := w.process(ctx, job, actor); err != nil {
		lg.Error().Err(err).Msg("ingest job failed")
		if ferr := repo.FinishJob(ctx, w.DB, job.ID, domain.JobFailed, err.Error()); ferr != nil {
			lg.Error().Err(ferr).Msg("record job failure")
		}
		return true
	}
	if err := repo.FinishJob(ctx, w.DB, job.ID, domain.JobSucceeded, ""); err != nil {
		lg.Error().Err(err).Msg("record job success")
	}
	lg.Info().Msg("ingest job finished")
	return true
}

// process walks the job's rows in fixed-size batches. Per-row failures are
// accounted on the job, never propagated; only infrastructure errors (the
// job row itself cannot be updated) fail the job.
func (w *Worker) process(ctx context.Context, job *domain.IngestJob, actor domain.Identity) error {
	rows := job.Rows
	for start := 0; start < len(rows); start += w.BatchSize {
		end := start + w.BatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		sum := w.Ingest.ProcessRows(ctx, batch, actor, start)
		succeeded := len(batch) - sum.Failed
		lastErr := ""
		if n := len(sum.Errors); n > 0 {
			last := sum.Errors[n-1]
			if len(last.Messages) > 0 {
				lastErr = last.Messages[0]
			}
		}
		if err := repo.AdvanceJob(ctx, w.DB, job.ID, len(batch), succeeded, sum.Failed, sum.Errors, lastErr); err != nil {
			return err
		}
	}
	return nil
}
