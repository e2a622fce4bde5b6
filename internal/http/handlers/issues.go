// Issue curation endpoints.
//
//   - GET  /issues            (search by name-or-alias substring)
//   - POST /issues            (create curated issue)
//   - POST /issues/:id/merge  (consolidate a duplicate into this issue)
//   - POST /issues/:id/recount
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonathanduvan/gov-reach/internal/utils"
)

// CreateIssueRequest is the payload for direct issue creation.
type CreateIssueRequest struct {
	Name    string   `json:"name" binding:"required"`
	Aliases []string `json:"aliases,omitempty"`
}

// MergeIssueRequest names the issue to fold into the path issue.
type MergeIssueRequest struct {
	SourceID string `json:"sourceId" binding:"required"`
}

// SearchIssues godoc
// @ID          searchIssues
// @Summary     Search issues
// @Description Name-or-alias substring search over canonical issue tags.
// @Tags        Issues
// @Produce     json
// @Param       q     query string false "Search text"
// @Param       limit query int    false "Max results" default(50)
// @Success     200 {array} domain.Issue
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /issues [get]
func (h *Handlers) SearchIssues(c *gin.Context) {
	issues, err := h.issues.Search(c.Request.Context(), c.Query("q"), utils.AtoiDefault(c.Query("limit"), 50))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, issues)
}

// CreateIssue godoc
// @ID          createIssue
// @Summary     Create a curated issue
// @Tags        Issues
// @Accept      json
// @Produce     json
// @Param       X-User-Email header string true "Acting user email"
// @Param       body body handlers.CreateIssueRequest true "Issue"
// @Success     201 {object} domain.Issue
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     401 {object} handlers.ErrorResponse
// @Router      /issues [post]
func (h *Handlers) CreateIssue(c *gin.Context) {
	if _, okID := requireIdentity(c); !okID {
		return
	}
	var req CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "issue name is required")
		return
	}
	issue, err := h.issues.Create(c.Request.Context(), req.Name, req.Aliases)
	if failFromService(c, err) {
		return
	}
	c.JSON(http.StatusCreated, issue)
}

// MergeIssue godoc
// @ID          mergeIssue
// @Summary     Merge one issue into another
// @Description Consolidates aliases onto the target, redirects all officials referencing the source, and deletes the source.
// @Tags        Issues
// @Accept      json
// @Produce     json
// @Param       X-User-Email header string true "Acting user email"
// @Param       id   path string true "Target issue ID"
// @Param       body body handlers.MergeIssueRequest true "Source issue"
// @Success     200 {object} domain.Issue
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /issues/{id}/merge [post]
func (h *Handlers) MergeIssue(c *gin.Context) {
	if _, okID := requireIdentity(c); !okID {
		return
	}
	var req MergeIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "sourceId is required")
		return
	}
	issue, err := h.issues.Merge(c.Request.Context(), c.Param("id"), req.SourceID)
	if failFromService(c, err) {
		return
	}
	ok(c, issue)
}

// RecountIssue godoc
// @ID          recountIssue
// @Summary     Refresh an issue's usage count
// @Tags        Issues
// @Produce     json
// @Param       X-User-Email header string true "Acting user email"
// @Param       id path string true "Issue ID"
// @Success     200 {object} domain.Issue
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /issues/{id}/recount [post]
func (h *Handlers) RecountIssue(c *gin.Context) {
	if _, okID := requireIdentity(c); !okID {
		return
	}
	issue, err := h.issues.Recount(c.Request.Context(), c.Param("id"))
	if failFromService(c, err) {
		return
	}
	ok(c, issue)
}
