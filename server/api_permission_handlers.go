package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contractdesk/contractdesk/authz"
	"github.com/contractdesk/contractdesk/dto"
)

// HandleCheckPermission evaluates one permission check for the caller and
// returns the decision with its provenance.
func (s *Server) HandleCheckPermission(c *gin.Context) {
	var req dto.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "invalid JSON payload"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": err.Error()})
		return
	}
	userID := c.GetString(ctxUserID)
	decision, err := s.Resolver.HasPermission(c.Request.Context(), userID, req.ToCheck(), req.Scope())
	s.recordDecision(decision)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, dto.FromDecision(decision))
}

func (s *Server) handleBatchCheck(c *gin.Context, all bool) {
	var req dto.BatchCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "invalid JSON payload"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": err.Error()})
		return
	}
	userID := c.GetString(ctxUserID)
	checks := make([]authz.Check, 0, len(req.Checks))
	for _, cr := range req.Checks {
		checks = append(checks, cr.ToCheck())
	}
	var allowed bool
	var err error
	if all {
		allowed, err = s.Resolver.HasAllPermissions(c.Request.Context(), userID, checks, req.Scope())
	} else {
		allowed, err = s.Resolver.HasAnyPermission(c.Request.Context(), userID, checks, req.Scope())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"allowed": allowed})
}

// HandleCheckAnyPermission answers the OR of the posted checks.
func (s *Server) HandleCheckAnyPermission(c *gin.Context) { s.handleBatchCheck(c, false) }

// HandleCheckAllPermissions answers the AND of the posted checks.
func (s *Server) HandleCheckAllPermissions(c *gin.Context) { s.handleBatchCheck(c, true) }

// HandleMyGrants returns the caller's effective grant strings for the
// client-side ACL mirror, served from the valkey snapshot when warm.
func (s *Server) HandleMyGrants(c *gin.Context) {
	userID := c.GetString(ctxUserID)
	ctx := c.Request.Context()
	if s.GrantCache != nil {
		if grants, ok, err := s.GrantCache.Get(ctx, userID); err == nil && ok {
			c.JSON(http.StatusOK, gin.H{"grants": grants})
			return
		}
	}
	grants, err := s.EffectiveGrants(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	if s.GrantCache != nil {
		// warming is best effort; the response does not depend on it
		_ = s.GrantCache.Put(ctx, userID, grants)
	}
	c.JSON(http.StatusOK, gin.H{"grants": grants})
}

// HandleMyContext returns the caller's UserContext (flags + department), the
// shape other subsystems consume from the authorization core.
func (s *Server) HandleMyContext(c *gin.Context) {
	uc, err := authz.BuildUserContext(c.Request.Context(), s.Grants, c.GetString(ctxUserID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, uc)
}
