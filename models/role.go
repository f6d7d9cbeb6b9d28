package models

import (
	"strings"
	"time"
)

// ScopeType is the breadth of a role grant.
type ScopeType string

const (
	ScopeGlobal     ScopeType = "global"
	ScopeDepartment ScopeType = "department"
	ScopeContract   ScopeType = "contract"
)

// IsValid returns true if t is one of the allowed constants.
func (t ScopeType) IsValid() bool {
	switch t {
	case ScopeGlobal, ScopeDepartment, ScopeContract:
		return true
	}
	return false
}

// NormalizeScopeType canonicalizes a scope string; invalid input is returned as-is.
func NormalizeScopeType(s string) ScopeType {
	return ScopeType(strings.ToLower(strings.TrimSpace(s)))
}

// Role is an immutable catalog entry administrators manage.
type Role struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;uniqueIndex" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Role) TableName() string { return "roles" }

// RolePermission binds a role to a (resource, action) pair, optionally gated
// by a conditions schema that merges into mapping conditions at check time.
type RolePermission struct {
	ID               string     `gorm:"column:id;primaryKey" json:"id"`
	RoleID           string     `gorm:"column:role_id;index" json:"role_id"`
	Resource         string     `gorm:"column:resource" json:"resource"`
	Action           string     `gorm:"column:action" json:"action"`
	ConditionsSchema Conditions `gorm:"column:conditions_schema;type:jsonb" json:"conditions_schema,omitempty"`
}

func (RolePermission) TableName() string { return "role_permissions" }

// RoleMapping grants a role to a user within a scope, optionally time-bound
// and condition-gated. Revocation deactivates; rows are never hard-deleted.
// Duplicate (user, role, scope, scope_id) rows are logically superseded by the
// most recently granted one.
type RoleMapping struct {
	ID         string     `gorm:"column:id;primaryKey" json:"id"`
	UserID     string     `gorm:"column:user_id;index" json:"user_id"`
	RoleID     string     `gorm:"column:role_id;index" json:"role_id"`
	Scope      ScopeType  `gorm:"column:scope" json:"scope"`
	ScopeID    *string    `gorm:"column:scope_id" json:"scope_id,omitempty"`
	GrantedBy  string     `gorm:"column:granted_by" json:"granted_by"`
	GrantedAt  time.Time  `gorm:"column:granted_at" json:"granted_at"`
	ExpiresAt  *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	IsActive   bool       `gorm:"column:is_active" json:"is_active"`
	Conditions Conditions `gorm:"column:conditions;type:jsonb" json:"conditions,omitempty"`
	Metadata   Conditions `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
}

func (RoleMapping) TableName() string { return "role_mappings" }

// CurrentAt reports whether the mapping is active, already granted, and not
// expired at the given instant.
func (m *RoleMapping) CurrentAt(now time.Time) bool {
	if !m.IsActive {
		return false
	}
	if m.GrantedAt.After(now) {
		return false
	}
	if m.ExpiresAt != nil && !m.ExpiresAt.After(now) {
		return false
	}
	return true
}
