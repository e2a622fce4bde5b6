// Package handlers provides HTTP handler implementations for the public
// API. Handlers are transport-thin: they validate input, delegate to the
// service layer, and translate service errors into HTTP results.
//
// This file defines the standard response utilities: a structured error
// envelope with stable machine-readable codes, and the shared translation
// from service sentinel errors to HTTP failures.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonathanduvan/gov-reach/internal/http/middleware"
	"github.com/jonathanduvan/gov-reach/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"submission not found"`
	// Current lock holder, present only on thread-locked conflicts
	Holder string `json:"holder,omitempty" example:"reviewer@example.org"`
}

// fail aborts the request with a structured error and logs server-side
// errors with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	failWith(c, status, code, msg, "")
}

func failWith(c *gin.Context, status int, code, msg, holder string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
		Holder:    holder,
	}
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant for router-level fallbacks (404/405).
func Fail(c *gin.Context, status int, code, msg string) {
	fail(c, status, code, msg)
}

// failFromService maps the service error taxonomy onto HTTP failures so
// every endpoint reports the same kinds the same way. Returns true when it
// handled the error.
func failFromService(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	var locked *services.ThreadLockedError
	var invalid *services.ValidationError
	switch {
	case errors.As(err, &locked):
		failWith(c, http.StatusConflict, ErrCodeConflict, locked.Error(), locked.Holder)
	case errors.As(err, &invalid):
		fail(c, http.StatusBadRequest, ErrCodeValidation, invalid.Error())
	case errors.Is(err, services.ErrSubmissionNotFound),
		errors.Is(err, services.ErrOfficialNotFound),
		errors.Is(err, services.ErrThreadNotFound),
		errors.Is(err, services.ErrIssueNotFound),
		errors.Is(err, services.ErrJobNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrForbiddenRelease):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrAlreadyResolved),
		errors.Is(err, services.ErrInvalidAction):
		fail(c, http.StatusUnprocessableEntity, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
	return true
}

// ok writes a JSON 200.
func ok(c *gin.Context, body any) { c.JSON(http.StatusOK, body) }
