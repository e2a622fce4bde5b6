// Thread and lock endpoints.
//
//   - GET    /threads                  (leader listing with filters)
//   - GET    /threads/:key            (leader + children)
//   - GET    /threads/:key/lock       (lock status)
//   - POST   /threads/:key/lock       (claim)
//   - DELETE /threads/:key/lock       (release)
//   - GET    /threads/:key/events     (audit feed, newest first)
//
// Group keys contain slashes ("official:<id>") never, but may contain
// colons and pipes; they travel URL-encoded in the :key segment.
package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/jonathanduvan/gov-reach/internal/domain"
	"github.com/jonathanduvan/gov-reach/internal/repo"
	"github.com/jonathanduvan/gov-reach/internal/utils"
)

// ThreadPage is one page of thread leaders.
type ThreadPage struct {
	Items    []domain.Submission `json:"items"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

// ThreadDetail is a full review thread.
type ThreadDetail struct {
	Leader   *domain.Submission  `json:"leader"`
	Children []domain.Submission `json:"children"`
}

// groupKey decodes the :key path segment.
func groupKey(c *gin.Context) string {
	raw := c.Param("key")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// ListThreads godoc
// @ID          listThreads
// @Summary     List review thread leaders
// @Description Returns thread leaders filtered by status and search text, newest first, paginated.
// @Tags        Threads
// @Produce     json
// @Param       status    query string false "Filter by status" Enums(pending, conflict, approved, rejected)
// @Param       q         query string false "Search text over proposed record and submitter"
// @Param       page      query int    false "1-based page" default(1)
// @Param       page_size query int    false "Page size" default(20)
// @Success     200 {object} handlers.ThreadPage
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /threads [get]
func (h *Handlers) ListThreads(c *gin.Context) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	size := utils.ClampPageSize(utils.AtoiDefault(c.Query("page_size"), 20))
	q := repo.ThreadQuery{
		Status: c.Query("status"),
		Search: c.Query("q"),
	}
	ctx := c.Request.Context()
	total, err := repo.CountThreadLeaders(ctx, h.db, q)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	items, err := repo.ListThreadLeadersPage(ctx, h.db, q, (page-1)*size, size)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, ThreadPage{Items: items, Total: total, Page: page, PageSize: size})
}

// GetThread godoc
// @ID          getThread
// @Summary     Fetch one review thread
// @Description Returns the thread's leader and all child submissions for a group key.
// @Tags        Threads
// @Produce     json
// @Param       key path string true "Group key (URL-encoded)"
// @Success     200 {object} handlers.ThreadDetail
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /threads/{key} [get]
func (h *Handlers) GetThread(c *gin.Context) {
	subs, err := h.resolve.Thread(c.Request.Context(), groupKey(c))
	if failFromService(c, err) {
		return
	}
	detail := ThreadDetail{Children: []domain.Submission{}}
	for i := range subs {
		if subs[i].IsLeader() {
			detail.Leader = &subs[i]
		} else {
			detail.Children = append(detail.Children, subs[i])
		}
	}
	ok(c, detail)
}

// LockStatus godoc
// @ID          lockStatus
// @Summary     Get a thread's lock status
// @Tags        Threads
// @Produce     json
// @Param       X-User-Email header string true "Acting user email"
// @Param       key path string true "Group key (URL-encoded)"
// @Success     200 {object} services.LockStatus
// @Failure     401 {object} handlers.ErrorResponse
// @Router      /threads/{key}/lock [get]
func (h *Handlers) LockStatus(c *gin.Context) {
	actor, okID := requireIdentity(c)
	if !okID {
		return
	}
	st, err := h.locks.Status(c.Request.Context(), groupKey(c), actor)
	if failFromService(c, err) {
		return
	}
	ok(c, st)
}

// ClaimLock godoc
// @ID          claimLock
// @Summary     Claim a thread for review
// @Description Acquires or refreshes the thread lock. A live lock held by another reviewer yields 409 naming the holder.
// @Tags        Threads
// @Produce     json
// @Param       X-User-Email header string true  "Acting user email"
// @Param       X-User-Role  header string false "Acting user role"
// @Param       key path string true "Group key (URL-encoded)"
// @Success     200 {object} domain.ThreadLock
// @Failure     401 {object} handlers.ErrorResponse
// @Failure     409 {object} handlers.ErrorResponse "Locked by another reviewer"
// @Router      /threads/{key}/lock [post]
func (h *Handlers) ClaimLock(c *gin.Context) {
	actor, okID := requireIdentity(c)
	if !okID {
		return
	}
	lock, err := h.locks.Claim(c.Request.Context(), groupKey(c), actor)
	if failFromService(c, err) {
		return
	}
	ok(c, lock)
}

// ReleaseLock godoc
// @ID          releaseLock
// @Summary     Release a thread lock
// @Description Only the holder or an admin may release. Releasing a missing lock succeeds as a no-op.
// @Tags        Threads
// @Produce     json
// @Param       X-User-Email header string true  "Acting user email"
// @Param       X-User-Role  header string false "Acting user role"
// @Param       key path string true "Group key (URL-encoded)"
// @Success     204 {string} string "No Content"
// @Failure     401 {object} handlers.ErrorResponse
// @Failure     403 {object} handlers.ErrorResponse
// @Router      /threads/{key}/lock [delete]
func (h *Handlers) ReleaseLock(c *gin.Context) {
	actor, okID := requireIdentity(c)
	if !okID {
		return
	}
	if err := h.locks.Release(c.Request.Context(), groupKey(c), actor); failFromService(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ThreadEvents godoc
// @ID          threadEvents
// @Summary     List recent review events for a thread
// @Description Audit feed, newest first, bounded by limit.
// @Tags        Threads
// @Produce     json
// @Param       key   path  string true  "Group key (URL-encoded)"
// @Param       limit query int    false "Max events" default(50)
// @Success     200 {array} domain.ReviewEvent
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /threads/{key}/events [get]
func (h *Handlers) ThreadEvents(c *gin.Context) {
	events, err := h.audit.Feed(c.Request.Context(), groupKey(c), utils.AtoiDefault(c.Query("limit"), 50))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, events)
}
