// Ingest job polling endpoint.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/jonathanduvan/gov-reach/internal/domain"
)

// JobStatus is the progress view polled by bulk-ingest clients. Counters
// are monotonically increasing while the job runs.
type JobStatus struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Total     int               `json:"total"`
	Processed int               `json:"processed"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	LastError string            `json:"lastError,omitempty"`
	RowErrors []domain.RowError `json:"rowErrors,omitempty"`
}

// GetJob godoc
// @ID          getJob
// @Summary     Poll a bulk ingest job
// @Tags        Jobs
// @Produce     json
// @Param       id path string true "Job ID"
// @Success     200 {object} handlers.JobStatus
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /jobs/{id} [get]
func (h *Handlers) GetJob(c *gin.Context) {
	job, err := h.worker.Job(c.Request.Context(), c.Param("id"))
	if failFromService(c, err) {
		return
	}
	ok(c, JobStatus{
		ID:        job.ID,
		Status:    job.Status,
		Total:     job.Total,
		Processed: job.Processed,
		Succeeded: job.Succeeded,
		Failed:    job.Failed,
		LastError: job.LastError,
		RowErrors: job.RowErrors,
	})
}
