package authz

import (
	"sort"
	"time"

	"github.com/contractdesk/contractdesk/models"
)

// ScopeRef identifies the scope a permission check targets. A zero ScopeRef
// means a global-only check.
type ScopeRef struct {
	Type models.ScopeType
	ID   string
}

// IsZero reports whether the reference carries no scope id.
func (s ScopeRef) IsZero() bool { return s.ID == "" }

func scopeRank(t models.ScopeType) int {
	switch t {
	case models.ScopeContract:
		return 0
	case models.ScopeDepartment:
		return 1
	default:
		return 2
	}
}

// EligibleMappings filters role mappings to the currently valid ones for the
// requested scope and orders them most-specific first: contract scope matching
// the target, then department scope matching the target department or the
// user's own department, then global. A request without a scope id admits only
// global mappings. Within a scope level the latest granted_at wins, and
// superseded duplicates of the same (role, scope, scope_id) are dropped.
func EligibleMappings(mappings []models.RoleMapping, target ScopeRef, userDeptID string, now time.Time) []models.RoleMapping {
	eligible := make([]models.RoleMapping, 0, len(mappings))
	for _, m := range mappings {
		if !m.CurrentAt(now) {
			continue
		}
		switch m.Scope {
		case models.ScopeGlobal:
			eligible = append(eligible, m)
		case models.ScopeContract:
			if !target.IsZero() && target.Type == models.ScopeContract && m.ScopeID != nil && *m.ScopeID == target.ID {
				eligible = append(eligible, m)
			}
		case models.ScopeDepartment:
			if target.IsZero() || m.ScopeID == nil {
				continue
			}
			if (target.Type == models.ScopeDepartment && *m.ScopeID == target.ID) ||
				(userDeptID != "" && *m.ScopeID == userDeptID) {
				eligible = append(eligible, m)
			}
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		ri, rj := scopeRank(eligible[i].Scope), scopeRank(eligible[j].Scope)
		if ri != rj {
			return ri < rj
		}
		return eligible[i].GrantedAt.After(eligible[j].GrantedAt)
	})

	// Duplicates of the same (role, scope, scope_id) are logically superseded
	// by the most recent grant, which sorts first.
	type key struct {
		roleID  string
		scope   models.ScopeType
		scopeID string
	}
	seen := make(map[key]bool, len(eligible))
	out := eligible[:0]
	for _, m := range eligible {
		k := key{roleID: m.RoleID, scope: m.Scope}
		if m.ScopeID != nil {
			k.scopeID = *m.ScopeID
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, m)
	}
	return out
}
