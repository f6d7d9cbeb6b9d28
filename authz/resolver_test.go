package authz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/contractdesk/contractdesk/models"
	"github.com/contractdesk/contractdesk/policy"
)

// fakeStore is an in-memory GrantStore for resolver tests. Setting failOp
// makes the named operation return a wrapped ErrStoreUnavailable.
type fakeStore struct {
	flags       map[string]*models.PermissionFlags
	mappings    map[string][]models.RoleMapping
	permissions map[string][]models.RolePermission
	roles       map[string]models.Role
	departments map[string]*models.Department
	contracts   map[string]*models.Contract
	failOp      string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		flags:       map[string]*models.PermissionFlags{},
		mappings:    map[string][]models.RoleMapping{},
		permissions: map[string][]models.RolePermission{},
		roles:       map[string]models.Role{},
		departments: map[string]*models.Department{},
		contracts:   map[string]*models.Contract{},
	}
}

func (s *fakeStore) fail(op string) error {
	if s.failOp == op {
		return fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
	}
	return nil
}

func (s *fakeStore) PermissionFlags(_ context.Context, userID string) (*models.PermissionFlags, error) {
	if err := s.fail("flags"); err != nil {
		return nil, err
	}
	f, ok := s.flags[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return f, nil
}

func (s *fakeStore) RoleMappings(_ context.Context, userID string) ([]models.RoleMapping, error) {
	if err := s.fail("mappings"); err != nil {
		return nil, err
	}
	return s.mappings[userID], nil
}

func (s *fakeStore) RolePermissions(_ context.Context, roleID string) ([]models.RolePermission, error) {
	if err := s.fail("permissions"); err != nil {
		return nil, err
	}
	return s.permissions[roleID], nil
}

func (s *fakeStore) Roles(_ context.Context, roleIDs []string) ([]models.Role, error) {
	if err := s.fail("roles"); err != nil {
		return nil, err
	}
	out := make([]models.Role, 0, len(roleIDs))
	for _, id := range roleIDs {
		if r, ok := s.roles[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) GetDepartment(_ context.Context, id string) (*models.Department, error) {
	if err := s.fail("department"); err != nil {
		return nil, err
	}
	return s.departments[id], nil
}

func (s *fakeStore) GetDepartmentByCode(_ context.Context, code string) (*models.Department, error) {
	if err := s.fail("department_by_code"); err != nil {
		return nil, err
	}
	for _, d := range s.departments {
		if d != nil && d.Code == code {
			return d, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetContract(_ context.Context, id string) (*models.Contract, error) {
	if err := s.fail("contract"); err != nil {
		return nil, err
	}
	return s.contracts[id], nil
}

var _ GrantStore = (*fakeStore)(nil)

func strptr(s string) *string { return &s }

func testResolver(s *fakeStore) *Resolver {
	r := NewResolver(s, policy.NewBuiltinRegistry())
	r.SetLogger(log.New(io.Discard, "", 0))
	return r
}

func seedUser(s *fakeStore, userID string, f models.PermissionFlags) {
	f.UserID = userID
	s.flags[userID] = &f
}

func seedDept(s *fakeStore, id, code string) {
	s.departments[id] = &models.Department{ID: id, Code: code, Name: code}
}

func TestHasPermissionDirectFlag(t *testing.T) {
	s := newFakeStore()
	seedUser(s, "u1", models.PermissionFlags{Read: true})
	r := testResolver(s)

	d, err := r.HasPermission(context.Background(), "u1", Check{Resource: "contract", Action: models.ActionRead}, ScopeRef{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed || d.Source != SourceDirectFlag || d.Rule != models.ActionRead {
		t.Fatalf("got %+v, want direct flag allow", d)
	}
}

func TestHasPermissionUnknownUser(t *testing.T) {
	s := newFakeStore()
	r := testResolver(s)

	d, err := r.HasPermission(context.Background(), "ghost", Check{Resource: "contract", Action: models.ActionRead}, ScopeRef{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if d.Allowed {
		t.Fatal("missing user must deny")
	}
}

func TestHasPermissionStoreFailureIsError(t *testing.T) {
	s := newFakeStore()
	seedUser(s, "u1", models.PermissionFlags{})
	s.failOp = "flags"
	r := testResolver(s)

	d, err := r.HasPermission(context.Background(), "u1", Check{Resource: "contract", Action: models.ActionRead}, ScopeRef{})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("want ErrStoreUnavailable, got %v", err)
	}
	if d.Allowed {
		t.Fatal("store failure must not allow")
	}
}

func TestHasPermissionRoleMapping(t *testing.T) {
	s := newFakeStore()
	seedUser(s, "u1", models.PermissionFlags{})
	s.roles["r-editor"] = models.Role{ID: "r-editor", Name: "EDITOR"}
	s.mappings["u1"] = []models.RoleMapping{{
		ID: "m1", UserID: "u1", RoleID: "r-editor", Scope: models.ScopeGlobal,
		GrantedAt: time.Now().Add(-time.Hour), IsActive: true,
	}}
	s.permissions["r-editor"] = []models.RolePermission{
		{ID: "p1", RoleID: "r-editor", Resource: "contract", Action: models.ActionUpdate},
	}
	r := testResolver(s)

	d, err := r.HasPermission(context.Background(), "u1", Check{Resource: "contract", Action: models.ActionUpdate}, ScopeRef{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed || d.Source != SourceRoleMapping || d.Rule != "m1" {
		t.Fatalf("got %+v, want role mapping allow via m1", d)
	}

	// same role, unbound action
	d, err = r.HasPermission(context.Background(), "u1", Check{Resource: "contract", Action: models.ActionDelete}, ScopeRef{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed || d.Source != SourceNone {
		t.Fatalf("got %+v, want deny with no source", d)
	}
}

func TestHasPermissionWildcardBindings(t *testing.T) {
	s := newFakeStore()
	seedUser(s, "u1", models.PermissionFlags{})
	s.mappings["u1"] = []models.RoleMapping{{
		ID: "m1", UserID: "u1", RoleID: "r-admin", Scope: models.ScopeGlobal,
		GrantedAt: time.Now().Add(-time.Hour), IsActive: true,
	}}
	s.permissions["r-admin"] = []models.RolePermission{
		{ID: "p1", RoleID: "r-admin", Resource: "contract*", Action: "*"},
	}
	r := testResolver(s)

	for _, resource := range []string{"contract", "contract_template"} {
		d, err := r.HasPermission(context.Background(), "u1", Check{Resource: resource, Action: models.ActionDelete}, ScopeRef{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("resource %q: want allow via prefix wildcard", resource)
		}
	}

	d, err := r.HasPermission(context.Background(), "u1", Check{Resource: "report", Action: models.ActionRead}, ScopeRef{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed {
		t.Fatal("prefix wildcard must not cover unrelated resources")
	}
}

func TestHasPermissionExpiredAndInactiveMappings(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	s := newFakeStore()
	seedUser(s, "u1", models.PermissionFlags{})
	s.mappings["u1"] = []models.RoleMapping{
		{ID: "m-expired", RoleID: "r1", Scope: models.ScopeGlobal, GrantedAt: now.Add(-time.Hour), ExpiresAt: &past, IsActive: true},
		{ID: "m-inactive", RoleID: "r1", Scope: models.ScopeGlobal, GrantedAt: now.Add(-time.Hour), IsActive: false},
		{ID: "m-future", RoleID: "r1", Scope: models.ScopeGlobal, GrantedAt: now.Add(time.Hour), IsActive: true},
	}
	s.permissions["r1"] = []models.RolePermission{
		{ID: "p1", RoleID: "r1", Resource: "contract", Action: models.ActionRead},
	}
	r := testResolver(s)

	d, err := r.HasPermission(context.Background(), "u1", Check{Resource: "contract", Action: models.ActionRead}, ScopeRef{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed {
		t.Fatalf("got %+v, want deny: no mapping is currently valid", d)
	}
}

func TestHasPermissionContractScopeDoesNotLeakGlobally(t *testing.T) {
	s := newFakeStore()
	seedUser(s, "u1", models.PermissionFlags{})
	s.contracts["c1"] = &models.Contract{ID: "c1", DepartmentID: "d1", Status: models.ContractPending}
	seedDept(s, "d1", "OPS")
	s.mappings["u1"] = []models.RoleMapping{{
		ID: "m1", RoleID: "r1", Scope: models.ScopeContract, ScopeID: strptr("c1"),
		GrantedAt: time.Now().Add(-time.Hour), IsActive: true,
	}}
	s.permissions["r1"] = []models.RolePermission{
		{ID: "p1", RoleID: "r1", Resource: "contract", Action: models.ActionUpdate},
	}
	r := testResolver(s)

	// in scope: allowed
	d, err := r.HasPermission(context.Background(), "u1",
		Check{Resource: "contract", Action: models.ActionUpdate},
		ScopeRef{Type: models.ScopeContract, ID: "c1"})
	if err != nil || !d.Allowed {
		t.Fatalf("scoped check: got %+v, %v; want allow", d, err)
	}

	// global check: the contract-scoped grant must not apply
	d, err = r.HasPermission(context.Background(), "u1",
		Check{Resource: "contract", Action: models.ActionUpdate}, ScopeRef{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed {
		t.Fatal("contract-scoped grant leaked into a global check")
	}

	// different contract: not allowed
	s.contracts["c2"] = &models.Contract{ID: "c2", DepartmentID: "d1"}
	d, err = r.HasPermission(context.Background(), "u1",
		Check{Resource: "contract", Action: models.ActionUpdate},
		ScopeRef{Type: models.ScopeContract, ID: "c2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed {
		t.Fatal("grant for c1 applied to c2")
	}
}

func TestHasPermissionUnknownScopeDenies(t *testing.T) {
	s := newFakeStore()
	seedUser(s, "u1", models.PermissionFlags{Read: true, Update: true})
	r := testResolver(s)

	d, err := r.HasPermission(context.Background(), "u1",
		Check{Resource: "contract", Action: models.ActionAssign},
		ScopeRef{Type: models.ScopeContract, ID: "no-such-contract"})
	if err != nil {
		t.Fatalf("unknown scope must be a decision, not an error: %v", err)
	}
	if d.Allowed || d.Source != SourceInvalidScope || d.Rule != "no-such-contract" {
		t.Fatalf("got %+v, want invalid scope deny", d)
	}
}

func TestHasPermissionConditions(t *testing.T) {
	s := newFakeStore()
	seedUser(s, "u1", models.PermissionFlags{})
	s.mappings["u1"] = []models.RoleMapping{{
		ID: "m1", RoleID: "r1", Scope: models.ScopeGlobal,
		GrantedAt: time.Now().Add(-time.Hour), IsActive: true,
		Conditions: models.Conditions{"region": models.StringValue("emea")},
	}}
	s.permissions["r1"] = []models.RolePermission{{
		ID: "p1", RoleID: "r1", Resource: "contract", Action: models.ActionRead,
		ConditionsSchema: models.Conditions{"tier": models.NumberValue(2)},
	}}
	r := testResolver(s)
	check := func(conds models.Conditions) Decision {
		t.Helper()
		d, err := r.HasPermission(context.Background(), "u1",
			Check{Resource: "contract", Action: models.ActionRead, Conditions: conds}, ScopeRef{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return d
	}

	// all grant keys satisfied; extra request keys are fine
	d := check(models.Conditions{
		"region": models.StringValue("emea"),
		"tier":   models.NumberValue(2),
		"extra":  models.BoolValue(true),
	})
	if !d.Allowed {
		t.Fatalf("got %+v, want allow with satisfied conditions", d)
	}

	// a missing grant key denies
	if d := check(models.Conditions{"region": models.StringValue("emea")}); d.Allowed {
		t.Fatal("missing condition key must deny")
	}

	// a mismatched value denies
	if d := check(models.Conditions{
		"region": models.StringValue("apac"),
		"tier":   models.NumberValue(2),
	}); d.Allowed {
		t.Fatal("mismatched condition value must deny")
	}
}

func TestHasPermissionMappingConditionsOverrideSchema(t *testing.T) {
	s := newFakeStore()
	seedUser(s, "u1", models.PermissionFlags{})
	s.mappings["u1"] = []models.RoleMapping{{
		ID: "m1", RoleID: "r1", Scope: models.ScopeGlobal,
		GrantedAt: time.Now().Add(-time.Hour), IsActive: true,
		Conditions: models.Conditions{"tier": models.NumberValue(3)},
	}}
	s.permissions["r1"] = []models.RolePermission{{
		ID: "p1", RoleID: "r1", Resource: "contract", Action: models.ActionRead,
		ConditionsSchema: models.Conditions{"tier": models.NumberValue(1)},
	}}
	r := testResolver(s)

	d, err := r.HasPermission(context.Background(), "u1",
		Check{Resource: "contract", Action: models.ActionRead,
			Conditions: models.Conditions{"tier": models.NumberValue(3)}}, ScopeRef{})
	if err != nil || !d.Allowed {
		t.Fatalf("got %+v, %v; mapping conditions must win over the schema", d, err)
	}
}

func approvalFixture(t *testing.T, deptCode string) (*fakeStore, ScopeRef) {
	t.Helper()
	s := newFakeStore()
	seedDept(s, "d1", deptCode)
	s.contracts["c1"] = &models.Contract{ID: "c1", DepartmentID: "d1", Status: models.ContractPending}
	return s, ScopeRef{Type: models.ScopeContract, ID: "c1"}
}

func TestApprovalDirectFlagBypassesPolicy(t *testing.T) {
	s, scope := approvalFixture(t, models.DeptLegal)
	seedUser(s, "u1", models.PermissionFlags{Approve: true, DepartmentCode: strptr(models.DeptLegal)})
	r := testResolver(s)

	d, err := r.HasPermission(context.Background(), "u1",
		Check{Resource: "contract", Action: models.ActionApprove}, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed || d.Source != SourceDirectFlag {
		t.Fatalf("got %+v, want direct flag allow ahead of the policy", d)
	}
}

func TestApprovalPolicyOverridesRoleMapping(t *testing.T) {
	// An eligible mapping grants contract.approve, but the legal policy does
	// not recognize the caller as an approver. The policy answer wins.
	s, scope := approvalFixture(t, models.DeptLegal)
	seedUser(s, "u1", models.PermissionFlags{})
	s.roles["r1"] = models.Role{ID: "r1", Name: "EDITOR"}
	s.mappings["u1"] = []models.RoleMapping{{
		ID: "m1", RoleID: "r1", Scope: models.ScopeContract, ScopeID: strptr("c1"),
		GrantedAt: time.Now().Add(-time.Hour), IsActive: true,
	}}
	s.permissions["r1"] = []models.RolePermission{
		{ID: "p1", RoleID: "r1", Resource: "contract", Action: models.ActionApprove},
	}
	r := testResolver(s)

	d, err := r.HasPermission(context.Background(), "u1",
		Check{Resource: "contract", Action: models.ActionApprove}, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed || d.Source != SourceDepartmentPolicy || d.Rule != models.DeptLegal {
		t.Fatalf("got %+v, want authoritative policy deny", d)
	}
}

func TestApprovalPolicyAllowsByRole(t *testing.T) {
	s, scope := approvalFixture(t, models.DeptAccounting)
	seedUser(s, "u1", models.PermissionFlags{})
	s.roles["r1"] = models.Role{ID: "r1", Name: "CHIEF_ACCOUNTANT"}
	s.mappings["u1"] = []models.RoleMapping{{
		ID: "m1", RoleID: "r1", Scope: models.ScopeContract, ScopeID: strptr("c1"),
		GrantedAt: time.Now().Add(-time.Hour), IsActive: true,
	}}
	r := testResolver(s)

	d, err := r.HasPermission(context.Background(), "u1",
		Check{Resource: "contract", Action: models.ActionApprove}, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed || d.Source != SourceDepartmentPolicy || d.Rule != models.DeptAccounting {
		t.Fatalf("got %+v, want policy allow via CHIEF_ACCOUNTANT", d)
	}
}

func TestApprovalPolicyAllowsByMetadataCapability(t *testing.T) {
	s, scope := approvalFixture(t, models.DeptAccounting)
	seedUser(s, "u1", models.PermissionFlags{})
	s.roles["r1"] = models.Role{ID: "r1", Name: "EDITOR"}
	s.mappings["u1"] = []models.RoleMapping{{
		ID: "m1", RoleID: "r1", Scope: models.ScopeContract, ScopeID: strptr("c1"),
		GrantedAt: time.Now().Add(-time.Hour), IsActive: true,
		Metadata: models.Conditions{"budget_approver": models.BoolValue(true)},
	}}
	r := testResolver(s)

	d, err := r.HasPermission(context.Background(), "u1",
		Check{Resource: "contract", Action: models.ActionApprove}, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed || d.Source != SourceDepartmentPolicy {
		t.Fatalf("got %+v, want policy allow via budget_approver capability", d)
	}
}

type failingPolicy struct{}

func (failingPolicy) Code() string        { return "FLAKY" }
func (failingPolicy) Name() string        { return "Flaky" }
func (failingPolicy) Features() []string  { return nil }
func (failingPolicy) CanApprove(context.Context, string, policy.Context) (bool, error) {
	return true, errors.New("policy backend down")
}

func TestApprovalPolicyFailureDeniesWithoutError(t *testing.T) {
	s, scope := approvalFixture(t, "FLAKY")
	seedUser(s, "u1", models.PermissionFlags{Read: true})
	reg := policy.NewRegistry()
	reg.Register(failingPolicy{})
	r := NewResolver(s, reg)
	r.SetLogger(log.New(io.Discard, "", 0))

	d, err := r.HasPermission(context.Background(), "u1",
		Check{Resource: "contract", Action: models.ActionApprove}, scope)
	if err != nil {
		t.Fatalf("policy failure must not surface as a store error: %v", err)
	}
	if d.Allowed || d.Source != SourcePolicyError || d.Rule != "FLAKY" {
		t.Fatalf("got %+v, want logged deny from the failing policy", d)
	}
}

func TestApprovalOutsideRegisteredDepartments(t *testing.T) {
	// No policy is registered for OPS, so approval falls through to the role
	// mapping path.
	s, scope := approvalFixture(t, "OPS")
	seedUser(s, "u1", models.PermissionFlags{})
	s.roles["r1"] = models.Role{ID: "r1", Name: "APPROVER"}
	s.mappings["u1"] = []models.RoleMapping{{
		ID: "m1", RoleID: "r1", Scope: models.ScopeContract, ScopeID: strptr("c1"),
		GrantedAt: time.Now().Add(-time.Hour), IsActive: true,
	}}
	s.permissions["r1"] = []models.RolePermission{
		{ID: "p1", RoleID: "r1", Resource: "contract", Action: models.ActionApprove},
	}
	r := testResolver(s)

	d, err := r.HasPermission(context.Background(), "u1",
		Check{Resource: "contract", Action: models.ActionApprove}, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed || d.Source != SourceRoleMapping {
		t.Fatalf("got %+v, want role mapping allow when no policy governs", d)
	}
}

func TestHasAnyAndAllPermissions(t *testing.T) {
	s := newFakeStore()
	seedUser(s, "u1", models.PermissionFlags{Read: true})
	r := testResolver(s)
	checks := []Check{
		{Resource: "contract", Action: models.ActionRead},
		{Resource: "contract", Action: models.ActionDelete},
	}

	any, err := r.HasAnyPermission(context.Background(), "u1", checks, ScopeRef{})
	if err != nil || !any {
		t.Fatalf("any: got %v, %v; want true", any, err)
	}
	all, err := r.HasAllPermissions(context.Background(), "u1", checks, ScopeRef{})
	if err != nil || all {
		t.Fatalf("all: got %v, %v; want false", all, err)
	}

	s.failOp = "flags"
	if _, err := r.HasAnyPermission(context.Background(), "u1", checks, ScopeRef{}); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("any under store failure: want ErrStoreUnavailable, got %v", err)
	}
	if _, err := r.HasAllPermissions(context.Background(), "u1", checks, ScopeRef{}); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("all under store failure: want ErrStoreUnavailable, got %v", err)
	}
}
