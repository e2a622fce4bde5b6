// Directory browse endpoints.
//
//   - GET /officials      (filtered, paginated listing)
//   - GET /officials/:id
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonathanduvan/gov-reach/internal/domain"
	"github.com/jonathanduvan/gov-reach/internal/repo"
	"github.com/jonathanduvan/gov-reach/internal/utils"
)

// OfficialPage is one page of the canonical directory.
type OfficialPage struct {
	Items    []domain.Official `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// ListOfficials godoc
// @ID          listOfficials
// @Summary     Browse the canonical directory
// @Description Returns officials filtered by geography and search text, name order, paginated.
// @Tags        Officials
// @Produce     json
// @Param       state     query string false "Two-letter state code"
// @Param       level     query string false "Jurisdiction level" Enums(federal, state, municipal, regional, tribal)
// @Param       city      query string false "City"
// @Param       county    query string false "County"
// @Param       q         query string false "Search over name and role"
// @Param       page      query int    false "1-based page" default(1)
// @Param       page_size query int    false "Page size" default(20)
// @Success     200 {object} handlers.OfficialPage
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /officials [get]
func (h *Handlers) ListOfficials(c *gin.Context) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	size := utils.ClampPageSize(utils.AtoiDefault(c.Query("page_size"), 20))
	q := repo.OfficialQuery{
		RegionFilter: repo.RegionFilter{
			State:  c.Query("state"),
			Level:  c.Query("level"),
			City:   c.Query("city"),
			County: c.Query("county"),
		},
		Search: c.Query("q"),
	}
	ctx := c.Request.Context()
	total, err := repo.CountOfficials(ctx, h.db, q)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	items, err := repo.ListOfficialsPage(ctx, h.db, q, (page-1)*size, size)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, OfficialPage{Items: items, Total: total, Page: page, PageSize: size})
}

// GetOfficial godoc
// @ID          getOfficial
// @Summary     Fetch one official
// @Tags        Officials
// @Produce     json
// @Param       id path string true "Official ID"
// @Success     200 {object} domain.Official
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /officials/{id} [get]
func (h *Handlers) GetOfficial(c *gin.Context) {
	o, err := repo.GetOfficial(c.Request.Context(), h.db, c.Param("id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "official not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, o)
}
