// Acting-identity extraction.
//
// The pipeline treats the caller as an opaque authenticated principal: the
// upstream gateway terminates authentication and forwards the principal in
// headers. Nothing here re-derives or verifies identity.
package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jonathanduvan/gov-reach/internal/domain"
)

const (
	headerUserEmail = "X-User-Email"
	headerUserRole  = "X-User-Role"
)

// identity reads the acting principal from the request. A missing role
// defaults to the lowest-privilege role.
func identity(c *gin.Context) (domain.Identity, bool) {
	email := strings.TrimSpace(c.GetHeader(headerUserEmail))
	if email == "" {
		return domain.Identity{}, false
	}
	role := strings.ToLower(strings.TrimSpace(c.GetHeader(headerUserRole)))
	switch role {
	case domain.RoleAdmin, domain.RolePartner, domain.RoleContributor:
	default:
		role = domain.RoleUser
	}
	return domain.Identity{Email: strings.ToLower(email), Role: role}, true
}

// requireIdentity aborts with 401 when no principal was forwarded.
func requireIdentity(c *gin.Context) (domain.Identity, bool) {
	id, okID := identity(c)
	if !okID {
		fail(c, 401, ErrCodeUnauthorized, "missing X-User-Email header")
		return domain.Identity{}, false
	}
	return id, true
}
