package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contractdesk/contractdesk/authz"
	"github.com/contractdesk/contractdesk/models"
)

// scopeFromRequest derives the check scope from route params and query. A
// contract route's :id parameter scopes the check to that contract; callers
// may also pass scope_type/scope_id explicitly.
func scopeFromRequest(c *gin.Context, resource string) authz.ScopeRef {
	if resource == "contract" {
		if id := c.Param("id"); id != "" {
			return authz.ScopeRef{Type: models.ScopeContract, ID: id}
		}
	}
	st := models.NormalizeScopeType(c.Query("scope_type"))
	if st.IsValid() && st != models.ScopeGlobal {
		if id := c.Query("scope_id"); id != "" {
			return authz.ScopeRef{Type: st, ID: id}
		}
	}
	return authz.ScopeRef{}
}

// RequirePermission gates a route on the resolver's decision for
// (resource, action). Denials render a generic 403; grant store failures
// render a generic 500 and never fall open. Every decision is journaled.
func (s *Server) RequirePermission(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ctxUserID)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		check := authz.Check{Resource: resource, Action: action}
		decision, err := s.Resolver.HasPermission(c.Request.Context(), userID, check, scopeFromRequest(c, resource))
		s.recordDecision(decision)
		if err != nil {
			// fail-closed: infrastructure failure is a server error, not a deny
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
			c.Abort()
			return
		}
		if !decision.Allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}
