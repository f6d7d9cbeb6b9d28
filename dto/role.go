package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/contractdesk/contractdesk/models"
)

// GrantRoleRequest is the body of POST /users/:id/roles.
type GrantRoleRequest struct {
	RoleID     string            `json:"role_id"`
	Scope      string            `json:"scope"`
	ScopeID    *string           `json:"scope_id,omitempty"`
	ExpiresAt  *time.Time        `json:"expires_at,omitempty"`
	Conditions models.Conditions `json:"conditions,omitempty"`
	Metadata   models.Conditions `json:"metadata,omitempty"`
}

func (r *GrantRoleRequest) Validate() error {
	if strings.TrimSpace(r.RoleID) == "" {
		return fmt.Errorf("role_id is required")
	}
	st := models.NormalizeScopeType(r.Scope)
	if !st.IsValid() {
		return fmt.Errorf("invalid scope: %s", r.Scope)
	}
	if st != models.ScopeGlobal && (r.ScopeID == nil || *r.ScopeID == "") {
		return fmt.Errorf("scope_id is required for scope %s", st)
	}
	r.Scope = string(st)
	return nil
}

// RoleMappingResponse is the wire shape of a grant.
type RoleMappingResponse struct {
	ID        string     `json:"id"`
	RoleID    string     `json:"role_id"`
	Scope     string     `json:"scope"`
	ScopeID   *string    `json:"scope_id,omitempty"`
	GrantedBy string     `json:"granted_by"`
	GrantedAt time.Time  `json:"granted_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	IsActive  bool       `json:"is_active"`
}

func FromRoleMapping(m *models.RoleMapping) RoleMappingResponse {
	return RoleMappingResponse{
		ID:        m.ID,
		RoleID:    m.RoleID,
		Scope:     string(m.Scope),
		ScopeID:   m.ScopeID,
		GrantedBy: m.GrantedBy,
		GrantedAt: m.GrantedAt,
		ExpiresAt: m.ExpiresAt,
		IsActive:  m.IsActive,
	}
}
