package authz

import (
	"context"
	"log"
	"time"

	"github.com/contractdesk/contractdesk/models"
	"github.com/contractdesk/contractdesk/policy"
)

// GrantStore is the read-only view over persisted permission data the
// resolver evaluates against. Implementations must wrap infrastructure
// failures with ErrStoreUnavailable and report a missing user as ErrNotFound;
// a user with no flags or mappings yields nil/empty results, not an error.
type GrantStore interface {
	PermissionFlags(ctx context.Context, userID string) (*models.PermissionFlags, error)
	RoleMappings(ctx context.Context, userID string) ([]models.RoleMapping, error)
	RolePermissions(ctx context.Context, roleID string) ([]models.RolePermission, error)
	Roles(ctx context.Context, roleIDs []string) ([]models.Role, error)
	GetDepartment(ctx context.Context, id string) (*models.Department, error)
	GetDepartmentByCode(ctx context.Context, code string) (*models.Department, error)
	GetContract(ctx context.Context, id string) (*models.Contract, error)
}

// Check is the unit a permission check is evaluated against. Constructed per
// request, never persisted.
type Check struct {
	Resource   string
	Action     string
	Conditions models.Conditions
}

// Source identifies which rule produced a decision, for audit.
type Source string

const (
	SourceDirectFlag       Source = "direct_flag"
	SourceDepartmentPolicy Source = "department_policy"
	SourcePolicyError      Source = "policy_error"
	SourceRoleMapping      Source = "role_mapping"
	SourceInvalidScope     Source = "invalid_scope"
	SourceNone             Source = "none"
)

// Decision is the effective answer for one check plus the deciding rule's
// provenance: the flag name, department code, or role mapping id.
type Decision struct {
	Allowed     bool      `json:"allowed"`
	Source      Source    `json:"source"`
	Rule        string    `json:"rule,omitempty"`
	UserID      string    `json:"user_id"`
	Resource    string    `json:"resource"`
	Action      string    `json:"action"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Resolver merges direct flags, scoped role mappings, and department policy
// overrides into one effective allow/deny. It is read-only and request-scoped:
// concurrent checks share no mutable state beyond the store and registry.
//
// Construct with explicit dependencies; there is no package-level singleton.
type Resolver struct {
	store    GrantStore
	policies *policy.Registry
	logger   *log.Logger

	// Now is the clock used for grant windows; overridable in tests.
	Now func() time.Time
}

// NewResolver wires a resolver from its dependencies. policies may be nil,
// which disables department overrides entirely.
func NewResolver(store GrantStore, policies *policy.Registry) *Resolver {
	return &Resolver{
		store:    store,
		policies: policies,
		logger:   log.Default(),
		Now:      time.Now,
	}
}

// SetLogger replaces the logger used for policy evaluation failures.
func (r *Resolver) SetLogger(l *log.Logger) {
	if l != nil {
		r.logger = l
	}
}

func (r *Resolver) deny(userID string, c Check, src Source, rule string) Decision {
	return Decision{
		Allowed: false, Source: src, Rule: rule,
		UserID: userID, Resource: c.Resource, Action: c.Action, EvaluatedAt: r.Now(),
	}
}

func (r *Resolver) allow(userID string, c Check, src Source, rule string) Decision {
	d := r.deny(userID, c, src, rule)
	d.Allowed = true
	return d
}

// HasPermission evaluates one check for a user against an optional scope.
// "No permission" is a normal false decision; an error is returned only when
// the grant store itself fails, in which case the caller must deny.
//
// Order: direct flags first (an unconditional legacy fast path; note that a
// direct approve flag bypasses the department override, flagged to
// stakeholders as a possible escalation path), then the department policy
// override for contract approval, then scoped role mappings.
func (r *Resolver) HasPermission(ctx context.Context, userID string, check Check, scope ScopeRef) (Decision, error) {
	now := r.Now()

	flags, err := r.store.PermissionFlags(ctx, userID)
	if err != nil {
		return r.deny(userID, check, SourceNone, ""), err
	}
	if flags.HasAction(check.Action) {
		return r.allow(userID, check, SourceDirectFlag, check.Action), nil
	}

	mappings, err := r.store.RoleMappings(ctx, userID)
	if err != nil {
		return r.deny(userID, check, SourceNone, ""), err
	}

	userDeptID, userDeptCode, err := r.userDepartment(ctx, flags)
	if err != nil {
		return r.deny(userID, check, SourceNone, ""), err
	}

	// Validate the requested scope before anything depends on it. An unknown
	// scope id can never match a mapping, so it resolves to deny, not error.
	var scopedContract *models.Contract
	if !scope.IsZero() {
		switch scope.Type {
		case models.ScopeContract:
			scopedContract, err = r.store.GetContract(ctx, scope.ID)
			if err != nil {
				return r.deny(userID, check, SourceNone, ""), err
			}
			if scopedContract == nil {
				return r.deny(userID, check, SourceInvalidScope, scope.ID), nil
			}
		case models.ScopeDepartment:
			dept, err := r.store.GetDepartment(ctx, scope.ID)
			if err != nil {
				return r.deny(userID, check, SourceNone, ""), err
			}
			if dept == nil {
				return r.deny(userID, check, SourceInvalidScope, scope.ID), nil
			}
		}
	}

	eligible := EligibleMappings(mappings, scope, userDeptID, now)

	// Department override: authoritative either way for contract approval in
	// a department with a registered policy.
	if check.Action == models.ActionApprove && check.Resource == "contract" && r.policies != nil {
		code, contractID, err := r.approvalDepartment(ctx, scopedContract, userDeptCode, scope)
		if err != nil {
			return r.deny(userID, check, SourceNone, ""), err
		}
		if code != "" {
			if pol, ok := r.policies.Get(code); ok {
				pc, err := r.policyContext(ctx, userID, flags, eligible, check.Conditions)
				if err != nil {
					return r.deny(userID, check, SourceNone, ""), err
				}
				allowed, perr := pol.CanApprove(ctx, contractID, pc)
				if perr != nil {
					// Policy failure denies this check only; sibling checks
					// in a batch keep evaluating.
					r.logger.Printf("authz: policy %s failed for user=%s contract=%s: %v", code, userID, contractID, perr)
					return r.deny(userID, check, SourcePolicyError, code), nil
				}
				if allowed {
					return r.allow(userID, check, SourceDepartmentPolicy, code), nil
				}
				return r.deny(userID, check, SourceDepartmentPolicy, code), nil
			}
		}
	}

	for _, m := range eligible {
		perms, err := r.store.RolePermissions(ctx, m.RoleID)
		if err != nil {
			return r.deny(userID, check, SourceNone, ""), err
		}
		for _, rp := range perms {
			if !bindingMatches(rp, check) {
				continue
			}
			// Mapping conditions are the grant-specific overlay on the role
			// permission's schema; the mapping wins on conflicting keys.
			merged := rp.ConditionsSchema.Merge(m.Conditions)
			if MatchConditions(merged, check.Conditions) {
				return r.allow(userID, check, SourceRoleMapping, m.ID), nil
			}
		}
	}

	return r.deny(userID, check, SourceNone, ""), nil
}

// HasAnyPermission returns true iff at least one check allows. Checks are
// evaluated independently, short-circuiting on the first allow.
func (r *Resolver) HasAnyPermission(ctx context.Context, userID string, checks []Check, scope ScopeRef) (bool, error) {
	for _, c := range checks {
		d, err := r.HasPermission(ctx, userID, c, scope)
		if err != nil {
			return false, err
		}
		if d.Allowed {
			return true, nil
		}
	}
	return false, nil
}

// HasAllPermissions returns true iff every check allows, short-circuiting on
// the first deny.
func (r *Resolver) HasAllPermissions(ctx context.Context, userID string, checks []Check, scope ScopeRef) (bool, error) {
	for _, c := range checks {
		d, err := r.HasPermission(ctx, userID, c, scope)
		if err != nil {
			return false, err
		}
		if !d.Allowed {
			return false, nil
		}
	}
	return true, nil
}

// userDepartment resolves the caller's department id and code from the direct
// flags row. A dangling code is ignored rather than failing the check.
func (r *Resolver) userDepartment(ctx context.Context, flags *models.PermissionFlags) (id, code string, err error) {
	if flags == nil || flags.DepartmentCode == nil {
		return "", "", nil
	}
	code = models.NormalizeDepartmentCode(*flags.DepartmentCode)
	if code == "" {
		return "", "", nil
	}
	dept, err := r.store.GetDepartmentByCode(ctx, code)
	if err != nil {
		return "", "", err
	}
	if dept == nil {
		return "", code, nil
	}
	return dept.ID, dept.Code, nil
}

// approvalDepartment picks the department code governing an approve check:
// the contract's owning department when the check targets a contract,
// otherwise the caller's own department code.
func (r *Resolver) approvalDepartment(ctx context.Context, scoped *models.Contract, userDeptCode string, scope ScopeRef) (code, contractID string, err error) {
	if scoped != nil {
		contractID = scoped.ID
		dept, err := r.store.GetDepartment(ctx, scoped.DepartmentID)
		if err != nil {
			return "", "", err
		}
		if dept != nil {
			return dept.Code, contractID, nil
		}
	} else if scope.Type == models.ScopeContract {
		contractID = scope.ID
	}
	return userDeptCode, contractID, nil
}

// policyContext assembles the caller view handed to department policies: role
// names under the current scope plus capability flags built from the direct
// permission booleans and boolean grant metadata.
func (r *Resolver) policyContext(ctx context.Context, userID string, flags *models.PermissionFlags, eligible []models.RoleMapping, conds models.Conditions) (policy.Context, error) {
	caps := make(map[string]bool)
	if flags != nil {
		for _, a := range models.Actions {
			if flags.HasAction(a) {
				caps[a] = true
			}
		}
	}
	roleIDs := make([]string, 0, len(eligible))
	for _, m := range eligible {
		roleIDs = append(roleIDs, m.RoleID)
		for k, v := range m.Metadata {
			if v.Kind == models.KindBool && v.Bool {
				caps[k] = true
			}
		}
	}
	var names []string
	if len(roleIDs) > 0 {
		roles, err := r.store.Roles(ctx, roleIDs)
		if err != nil {
			return policy.Context{}, err
		}
		names = make([]string, 0, len(roles))
		for _, role := range roles {
			names = append(names, role.Name)
		}
	}
	return policy.Context{
		UserID:       userID,
		RoleNames:    names,
		Capabilities: caps,
		Conditions:   conds,
	}, nil
}

// bindingMatches reports whether a role permission covers the checked
// resource and action. A "*" on either side of the catalog entry is a
// wildcard; a trailing "*" on the resource matches by prefix.
func bindingMatches(rp models.RolePermission, c Check) bool {
	if rp.Action != "*" && rp.Action != c.Action {
		return false
	}
	if rp.Resource == "*" || rp.Resource == c.Resource {
		return true
	}
	if n := len(rp.Resource); n > 0 && rp.Resource[n-1] == '*' {
		prefix := rp.Resource[:n-1]
		return len(c.Resource) >= len(prefix) && c.Resource[:len(prefix)] == prefix
	}
	return false
}
