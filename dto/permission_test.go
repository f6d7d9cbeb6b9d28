package dto

import (
	"testing"

	"github.com/contractdesk/contractdesk/models"
)

func TestCheckRequestValidate(t *testing.T) {
	r := CheckRequest{Resource: " Contract ", Action: "READ"}
	if err := r.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Resource != "contract" || r.Action != "read" {
		t.Fatalf("got %q/%q, want normalized lowercase", r.Resource, r.Action)
	}

	bad := CheckRequest{Resource: "contract"}
	if err := bad.Validate(); err == nil {
		t.Fatal("missing action must fail")
	}

	badScope := CheckRequest{Resource: "contract", Action: "read", ScopeType: "galaxy", ScopeID: "x"}
	if err := badScope.Validate(); err == nil {
		t.Fatal("unknown scope_type must fail")
	}

	noID := CheckRequest{Resource: "contract", Action: "read", ScopeType: "contract"}
	if err := noID.Validate(); err == nil {
		t.Fatal("non-global scope without scope_id must fail")
	}
}

func TestCheckRequestScope(t *testing.T) {
	r := CheckRequest{Resource: "contract", Action: "read", ScopeType: "Contract", ScopeID: "c1"}
	if err := r.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scope := r.Scope()
	if scope.Type != models.ScopeContract || scope.ID != "c1" {
		t.Fatalf("scope = %+v", scope)
	}

	global := CheckRequest{Resource: "contract", Action: "read"}
	if !global.Scope().IsZero() {
		t.Fatal("absent scope must be zero")
	}
}

func TestBatchCheckRequestValidate(t *testing.T) {
	empty := BatchCheckRequest{}
	if err := empty.Validate(); err == nil {
		t.Fatal("empty batch must fail")
	}

	mixed := BatchCheckRequest{Checks: []CheckRequest{
		{Resource: "contract", Action: "read"},
		{Resource: "", Action: "read"},
	}}
	if err := mixed.Validate(); err == nil {
		t.Fatal("invalid member must fail the batch")
	}
}

func TestGrantRoleRequestValidate(t *testing.T) {
	r := GrantRoleRequest{RoleID: "r1", Scope: " Global "}
	if err := r.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Scope != string(models.ScopeGlobal) {
		t.Fatalf("scope = %q, want normalized", r.Scope)
	}

	missing := GrantRoleRequest{RoleID: "r1", Scope: "contract"}
	if err := missing.Validate(); err == nil {
		t.Fatal("contract scope without scope_id must fail")
	}
}
