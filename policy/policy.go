package policy

import (
	"context"

	"github.com/contractdesk/contractdesk/models"
)

// Context carries the caller attributes a department policy decides on: role
// names held under the current scope, capability flags (direct permission
// flags plus boolean grant metadata), and the request's condition map.
type Context struct {
	UserID       string
	RoleNames    []string
	Capabilities map[string]bool
	Conditions   models.Conditions
}

// HasRole reports whether the caller holds the named role.
func (c Context) HasRole(name string) bool {
	for _, r := range c.RoleNames {
		if r == name {
			return true
		}
	}
	return false
}

// HasCapability reports whether the named capability flag is set.
func (c Context) HasCapability(name string) bool {
	return c.Capabilities[name]
}

// DepartmentPolicy is a pluggable approval rule for one department code. Its
// CanApprove answer is authoritative for contract approval in that department:
// it may allow or deny regardless of role mappings. An error is treated as
// deny for the affected check only.
type DepartmentPolicy interface {
	Code() string
	Name() string
	Features() []string
	CanApprove(ctx context.Context, contractID string, pc Context) (bool, error)
}
