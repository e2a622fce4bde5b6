// Submission endpoints.
//
//   - POST /submissions        (single proposed record)
//   - POST /submissions/bulk   (row batch → background job)
//   - POST /submissions/:id/resolve
//   - POST /submissions/resolve-bulk
//   - POST /submissions/:id/vote
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonathanduvan/gov-reach/internal/domain"
	"github.com/jonathanduvan/gov-reach/internal/services"
)

// SubmitResponse describes the outcome of a single submission.
type SubmitResponse struct {
	Submission *domain.Submission `json:"submission"`
	Duplicate  bool               `json:"duplicate"`
	Converted  bool               `json:"converted"` // create converted into an edit by a confident match
}

// Submit godoc
// @ID          submitRecord
// @Summary     Submit one proposed official record
// @Description Runs the reconciliation pipeline for a single proposed record and attaches it to its review thread.
// @Tags        Submissions
// @Accept      json
// @Produce     json
// @Param       X-User-Email header string true  "Acting user email"
// @Param       X-User-Role  header string false "Acting user role"
// @Param       body body domain.Proposed true "Proposed official record"
// @Success     201 {object} handlers.SubmitResponse
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     401 {object} handlers.ErrorResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /submissions [post]
func (h *Handlers) Submit(c *gin.Context) {
	actor, okID := requireIdentity(c)
	if !okID {
		return
	}
	var proposed domain.Proposed
	if err := c.ShouldBindJSON(&proposed); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed submission payload")
		return
	}
	res, err := h.ingest.Submit(c.Request.Context(), proposed, actor)
	if failFromService(c, err) {
		return
	}
	c.JSON(http.StatusCreated, SubmitResponse{
		Submission: res.Submission,
		Duplicate:  res.Duplicate,
		Converted:  res.Converted,
	})
}

// BulkRequest is a batch of loosely-keyed rows.
type BulkRequest struct {
	Rows []map[string]any `json:"rows" binding:"required"`
}

// BulkResponse returns the job handle for a queued ingest.
type BulkResponse struct {
	JobID string `json:"jobId"`
	Total int    `json:"total"`
}

// SubmitBulk godoc
// @ID          submitBulk
// @Summary     Queue a bulk ingest
// @Description Enqueues a background job for the given rows and returns immediately with the job ID; poll /jobs/{id} for progress.
// @Tags        Submissions
// @Accept      json
// @Produce     json
// @Param       X-User-Email header string true  "Acting user email"
// @Param       X-User-Role  header string false "Acting user role"
// @Param       body body handlers.BulkRequest true "Rows to ingest"
// @Success     202 {object} handlers.BulkResponse
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     401 {object} handlers.ErrorResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /submissions/bulk [post]
func (h *Handlers) SubmitBulk(c *gin.Context) {
	actor, okID := requireIdentity(c)
	if !okID {
		return
	}
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "rows array is required")
		return
	}
	job, err := h.worker.Enqueue(c.Request.Context(), req.Rows, actor)
	if failFromService(c, err) {
		return
	}
	c.JSON(http.StatusAccepted, BulkResponse{JobID: job.ID, Total: job.Total})
}

// Resolve godoc
// @ID          resolveSubmission
// @Summary     Apply a reviewer decision to one submission
// @Description Approves (runs the merge engine and writes the directory) or rejects a pending/conflict submission; optionally verifies the record and closes the thread.
// @Tags        Review
// @Accept      json
// @Produce     json
// @Param       X-User-Email header string true  "Acting user email"
// @Param       X-User-Role  header string false "Acting user role"
// @Param       id   path string true "Submission ID"
// @Param       body body services.ResolveRequest true "Decision"
// @Success     200 {object} services.ResolveOutcome
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     409 {object} handlers.ErrorResponse "Thread locked by another reviewer"
// @Failure     422 {object} handlers.ErrorResponse "Already resolved or invalid action"
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /submissions/{id}/resolve [post]
func (h *Handlers) Resolve(c *gin.Context) {
	actor, okID := requireIdentity(c)
	if !okID {
		return
	}
	var req services.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed resolve payload")
		return
	}
	out, err := h.resolve.Resolve(c.Request.Context(), c.Param("id"), actor, req)
	if failFromService(c, err) {
		return
	}
	ok(c, out)
}

// BulkResolveRequest applies one decision across many submissions.
type BulkResolveRequest struct {
	SubmissionIDs []string                `json:"submissionIds" binding:"required"`
	Request       services.ResolveRequest `json:"request"`
}

// ResolveBulk godoc
// @ID          resolveBulk
// @Summary     Apply one decision across many submissions
// @Description Per-item resolution with individual failure tolerance; returns ok/fail accounting per submission.
// @Tags        Review
// @Accept      json
// @Produce     json
// @Param       X-User-Email header string true  "Acting user email"
// @Param       X-User-Role  header string false "Acting user role"
// @Param       body body handlers.BulkResolveRequest true "Decision and targets"
// @Success     200 {object} services.BulkOutcome
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     401 {object} handlers.ErrorResponse
// @Router      /submissions/resolve-bulk [post]
func (h *Handlers) ResolveBulk(c *gin.Context) {
	actor, okID := requireIdentity(c)
	if !okID {
		return
	}
	var req BulkResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "submissionIds array is required")
		return
	}
	out := h.resolve.BulkResolve(c.Request.Context(), req.SubmissionIDs, actor, req.Request)
	ok(c, out)
}

// VoteRequest adjusts a submission's vote tally.
type VoteRequest struct {
	Value int `json:"value" binding:"required,oneof=-1 1" example:"1"`
}

// Vote godoc
// @ID          voteSubmission
// @Summary     Vote on a submission
// @Description Adjusts the vote tally by +1 or -1. Rejected while another reviewer holds the thread lock.
// @Tags        Review
// @Accept      json
// @Produce     json
// @Param       X-User-Email header string true  "Acting user email"
// @Param       X-User-Role  header string false "Acting user role"
// @Param       id   path string true "Submission ID"
// @Param       body body handlers.VoteRequest true "Vote"
// @Success     200 {object} domain.Submission
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     409 {object} handlers.ErrorResponse "Thread locked by another reviewer"
// @Router      /submissions/{id}/vote [post]
func (h *Handlers) Vote(c *gin.Context) {
	actor, okID := requireIdentity(c)
	if !okID {
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value must be -1 or 1")
		return
	}
	sub, err := h.resolve.Vote(c.Request.Context(), c.Param("id"), actor, req.Value)
	if failFromService(c, err) {
		return
	}
	ok(c, sub)
}
