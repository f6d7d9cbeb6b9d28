package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/contractdesk/contractdesk/dto"
	"github.com/contractdesk/contractdesk/models"
)

// HandleListRoles returns the role catalog.
func (s *Server) HandleListRoles(c *gin.Context) {
	roles, err := s.Roles.ListRoles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

// HandleGrantRole creates a role mapping for the target user and drops that
// user's grant snapshot so the next mirror fetch sees the new role.
func (s *Server) HandleGrantRole(c *gin.Context) {
	var req dto.GrantRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "invalid JSON payload"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": err.Error()})
		return
	}
	targetUser := c.Param("id")
	m, err := s.Roles.Grant(c.Request.Context(), targetUser, req.RoleID,
		models.ScopeType(req.Scope), req.ScopeID, c.GetString(ctxUserID),
		req.ExpiresAt, req.Conditions, req.Metadata)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "error_description": "role or scope target does not exist"})
		return
	}
	if errors.Is(err, gorm.ErrInvalidData) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	s.invalidateGrants(c, targetUser)
	c.JSON(http.StatusCreated, dto.FromRoleMapping(m))
}

// HandleRevokeRole deactivates a role mapping.
func (s *Server) HandleRevokeRole(c *gin.Context) {
	err := s.Roles.Revoke(c.Request.Context(), c.Param("mappingId"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	s.invalidateGrants(c, c.Param("id"))
	c.Status(http.StatusNoContent)
}

// HandleListUserRoles returns all role mappings of a user, active or not.
func (s *Server) HandleListUserRoles(c *gin.Context) {
	mappings, err := s.Roles.ListMappings(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	out := make([]dto.RoleMappingResponse, 0, len(mappings))
	for i := range mappings {
		out = append(out, dto.FromRoleMapping(&mappings[i]))
	}
	c.JSON(http.StatusOK, gin.H{"mappings": out})
}

func (s *Server) invalidateGrants(c *gin.Context, userID string) {
	if s.GrantCache == nil || userID == "" {
		return
	}
	// stale snapshots only widen latency, never access, so a failed drop is
	// logged and the request proceeds
	if err := s.GrantCache.Invalidate(c.Request.Context(), userID); err != nil {
		log.Printf("server: invalidate grants for user=%s: %v", userID, err)
	}
}
