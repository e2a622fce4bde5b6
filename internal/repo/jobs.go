// Repository functions for background ingest jobs.
//
// The job row is both the work queue entry (status = queued, rows payload)
// and the progress record polled by clients. Progress counters only ever
// increase; the worker adds per-batch deltas rather than overwriting.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jonathanduvan/gov-reach/internal/domain"
)

// CreateJob enqueues a new ingest job in the queued state.
func CreateJob(ctx context.Context, db *gorm.DB, rows []map[string]any, actor domain.Identity) (*domain.IngestJob, error) {
	job := &domain.IngestJob{
		ID:             uuid.NewString(),
		Status:         domain.JobQueued,
		SubmitterEmail: actor.Email,
		SubmitterRole:  actor.Role,
		Rows:           rows,
		Total:          len(rows),
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob fetches one job by ID, or ErrNotFound.
func GetJob(ctx context.Context, db *gorm.DB, id string) (*domain.IngestJob, error) {
	var job domain.IngestJob
	if err := db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ClaimNextQueuedJob transitions the oldest queued job to running and
// returns it, or ErrNotFound when the queue is empty. The transition runs in
// a transaction so two workers cannot claim the same job.
func ClaimNextQueuedJob(ctx context.Context, db *gorm.DB) (*domain.IngestJob, error) {
	var job domain.IngestJob
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("status = ?", domain.JobQueued).
			Order("created_at ASC").
			First(&job).Error; err != nil {
			return err
		}
		res := tx.Model(&domain.IngestJob{}).
			Where("id = ? AND status = ?", job.ID, domain.JobQueued).
			Updates(map[string]any{
				"status":     domain.JobRunning,
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		job.Status = domain.JobRunning
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// AdvanceJob adds one batch's results to the job's monotonic progress
// counters and appends any new row errors.
func AdvanceJob(ctx context.Context, db *gorm.DB, id string, processed, succeeded, failed int, rowErrs []domain.RowError, lastError string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job domain.IngestJob
		if err := tx.First(&job, "id = ?", id).Error; err != nil {
			return err
		}
		fields := map[string]any{
			"processed":  job.Processed + processed,
			"succeeded":  job.Succeeded + succeeded,
			"failed":     job.Failed + failed,
			"updated_at": time.Now().UTC(),
		}
		if len(rowErrs) > 0 {
			fields["row_errors"] = append(job.RowErrors, rowErrs...)
		}
		if lastError != "" {
			fields["last_error"] = lastError
		}
		return tx.Model(&domain.IngestJob{}).Where("id = ?", id).Updates(fields).Error
	})
}

// FinishJob records a job's terminal status, clearing the queued row payload
// so the table does not hold every batch forever.
func FinishJob(ctx context.Context, db *gorm.DB, id, status, lastError string) error {
	fields := map[string]any{
		"status":     status,
		"rows":       nil,
		"updated_at": time.Now().UTC(),
	}
	if lastError != "" {
		fields["last_error"] = lastError
	}
	res := db.WithContext(ctx).Model(&domain.IngestJob{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
