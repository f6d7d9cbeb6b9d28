package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/contractdesk/contractdesk/authz"
	"github.com/contractdesk/contractdesk/migrate"
	"github.com/contractdesk/contractdesk/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("skipping: TEST_DATABASE_DSN not set")
	}
	if err := migrate.Run(migrate.Options{Driver: "postgres", DSN: dsn}); err != nil {
		t.Skipf("skipping: migrations failed: %v", err)
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Skipf("skipping: database not available: %v", err)
	}
	return db
}

func TestGrantStoreMissingUser(t *testing.T) {
	db := openTestDB(t)
	gs := NewGrantStore(db)

	_, err := gs.PermissionFlags(context.Background(), "no-such-user")
	if !errors.Is(err, authz.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGrantStoreReadsUserData(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	gs := NewGrantStore(db)
	users := NewUserStore(db)
	depts := NewDepartmentStore(db)
	roles := NewRoleStore(db)

	dept, err := depts.Create(ctx, "QA"+models.NewID()[:6], "Quality Assurance")
	if err != nil {
		t.Fatalf("create department: %v", err)
	}
	u, err := users.Create(ctx, "user-"+models.NewID(), "s3cret!", &dept.ID)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	flags, err := gs.PermissionFlags(ctx, u.ID)
	if err != nil {
		t.Fatalf("flags: %v", err)
	}
	if flags == nil || flags.DepartmentCode == nil || *flags.DepartmentCode != dept.Code {
		t.Fatalf("flags = %+v, want department code %s", flags, dept.Code)
	}

	role, err := roles.UpsertRole(ctx, "EDITOR_"+models.NewID(), "edit access")
	if err != nil {
		t.Fatalf("upsert role: %v", err)
	}
	if _, err := roles.BindPermission(ctx, role.ID, "Contract", "UPDATE", nil); err != nil {
		t.Fatalf("bind permission: %v", err)
	}
	if _, err := roles.Grant(ctx, u.ID, role.ID, models.ScopeDepartment, &dept.ID, u.ID, nil, nil, nil); err != nil {
		t.Fatalf("grant: %v", err)
	}

	mappings, err := gs.RoleMappings(ctx, u.ID)
	if err != nil {
		t.Fatalf("mappings: %v", err)
	}
	if len(mappings) != 1 || mappings[0].Scope != models.ScopeDepartment {
		t.Fatalf("mappings = %+v", mappings)
	}

	perms, err := gs.RolePermissions(ctx, role.ID)
	if err != nil {
		t.Fatalf("permissions: %v", err)
	}
	if len(perms) != 1 || perms[0].Resource != "contract" || perms[0].Action != "update" {
		t.Fatalf("perms = %+v, want lowercased binding", perms)
	}

	got, err := gs.GetDepartmentByCode(ctx, dept.Code)
	if err != nil || got == nil || got.ID != dept.ID {
		t.Fatalf("department by code: %+v, %v", got, err)
	}
	if missing, err := gs.GetContract(ctx, "no-such-contract"); err != nil || missing != nil {
		t.Fatalf("missing contract must be nil, got %+v, %v", missing, err)
	}
}

func TestRoleStoreGrantValidation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	roles := NewRoleStore(db)

	if _, err := roles.Grant(ctx, "u1", "no-such-role", models.ScopeGlobal, nil, "admin", nil, nil, nil); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("grant against missing role: want ErrRecordNotFound, got %v", err)
	}

	role, err := roles.UpsertRole(ctx, "TEMP_"+models.NewID(), "")
	if err != nil {
		t.Fatalf("upsert role: %v", err)
	}
	scopeID := "no-such-contract"
	if _, err := roles.Grant(ctx, "u1", role.ID, models.ScopeContract, &scopeID, "admin", nil, nil, nil); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("grant against missing contract: want ErrRecordNotFound, got %v", err)
	}
	if _, err := roles.Grant(ctx, "u1", role.ID, models.ScopeDepartment, nil, "admin", nil, nil, nil); !errors.Is(err, gorm.ErrInvalidData) {
		t.Fatalf("department scope without scope_id: want ErrInvalidData, got %v", err)
	}
}

func TestContractStoreLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	contracts := NewContractStore(db)
	depts := NewDepartmentStore(db)
	users := NewUserStore(db)

	dept, err := depts.Create(ctx, "LC"+models.NewID()[:6], "Lifecycle")
	if err != nil {
		t.Fatalf("create department: %v", err)
	}
	u, err := users.Create(ctx, "user-"+models.NewID(), "s3cret!", nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	c, err := contracts.Create(ctx, "NDA", dept.ID, u.ID)
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}
	if c.Status != models.ContractDraft {
		t.Fatalf("status = %s, want draft", c.Status)
	}

	// approval before submission is a state error
	if err := contracts.Approve(ctx, c.ID, u.ID, true); !errors.Is(err, ErrContractNotPending) {
		t.Fatalf("approve draft: want ErrContractNotPending, got %v", err)
	}

	if err := contracts.Submit(ctx, c.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := contracts.Approve(ctx, c.ID, u.ID, false); err != nil {
		t.Fatalf("reject: %v", err)
	}

	got, err := contracts.GetByID(ctx, c.ID)
	if err != nil || got == nil {
		t.Fatalf("get: %+v, %v", got, err)
	}
	if got.Status != models.ContractRejected || got.ApprovedBy == nil || *got.ApprovedBy != u.ID {
		t.Fatalf("contract after rejection = %+v", got)
	}

	// collaborators
	cc, err := contracts.AddCollaborator(ctx, c.ID, u.ID, "viewer", u.ID)
	if err != nil {
		t.Fatalf("add collaborator: %v", err)
	}
	list, err := contracts.ListCollaborators(ctx, c.ID)
	if err != nil || len(list) != 1 || list[0].ID != cc.ID {
		t.Fatalf("list collaborators: %+v, %v", list, err)
	}
	if err := contracts.RemoveCollaborator(ctx, c.ID, u.ID); err != nil {
		t.Fatalf("remove collaborator: %v", err)
	}
}
