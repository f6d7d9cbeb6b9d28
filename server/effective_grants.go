package server

import (
	"context"
	"sort"
	"strings"

	"github.com/contractdesk/contractdesk/acl"
	"github.com/contractdesk/contractdesk/models"
)

// EffectiveGrants computes the caller's grant strings for the ACL mirror:
// "resource.action" entries plus "*" for an unrestricted role. The mirror is
// advisory, so only unconditional grants are included; condition-gated
// mappings cannot be represented as plain strings and are left to the
// server-side resolver.
func (s *Server) EffectiveGrants(ctx context.Context, userID string) ([]string, error) {
	set := make(map[string]struct{})

	flags, err := s.Grants.PermissionFlags(ctx, userID)
	if err != nil {
		return nil, err
	}
	if flags != nil {
		if flags.CreateContract {
			set["contract."+models.ActionCreateContract] = struct{}{}
		}
		if flags.CreateReport {
			set["report."+models.ActionCreateReport] = struct{}{}
		}
		for _, a := range []string{models.ActionRead, models.ActionUpdate, models.ActionDelete, models.ActionApprove, models.ActionAssign} {
			if flags.HasAction(a) {
				set["contract."+a] = struct{}{}
			}
		}
	}

	mappings, err := s.Grants.RoleMappings(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.Resolver.Now()
	for _, m := range mappings {
		if !m.CurrentAt(now) || len(m.Conditions) > 0 {
			continue
		}
		perms, err := s.Grants.RolePermissions(ctx, m.RoleID)
		if err != nil {
			return nil, err
		}
		for _, rp := range perms {
			if len(rp.ConditionsSchema) > 0 {
				continue
			}
			if rp.Resource == acl.Wildcard && rp.Action == acl.Wildcard {
				set[acl.Wildcard] = struct{}{}
				continue
			}
			// prefix-wildcard resources have no mirror representation
			if strings.HasSuffix(rp.Resource, acl.Wildcard) {
				continue
			}
			if rp.Action == acl.Wildcard {
				for _, a := range models.Actions {
					set[rp.Resource+"."+a] = struct{}{}
				}
				continue
			}
			set[rp.Resource+"."+rp.Action] = struct{}{}
		}
	}

	grants := make([]string, 0, len(set))
	for g := range set {
		grants = append(grants, g)
	}
	sort.Strings(grants)
	return grants, nil
}
