package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/contractdesk/contractdesk/authz"
	"github.com/contractdesk/contractdesk/models"
)

// GrantStore is the gorm-backed read path the permission resolver evaluates
// against. Writes belong to the CRUD stores; this view only reads.
//
// Infrastructure failures are wrapped with authz.ErrStoreUnavailable so the
// resolver stays fail-closed and callers can distinguish degradation from a
// legitimate denial.
type GrantStore struct{ DB *gorm.DB }

func NewGrantStore(db *gorm.DB) *GrantStore { return &GrantStore{DB: db} }

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, authz.ErrStoreUnavailable)
}

// PermissionFlags returns the user's direct flags row, or nil when the user
// exists without one. A missing user is authz.ErrNotFound.
func (s *GrantStore) PermissionFlags(ctx context.Context, userID string) (*models.PermissionFlags, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return nil, storeErr("count user", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, authz.ErrNotFound)
	}
	var flags models.PermissionFlags
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&flags).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("load permission flags", err)
	}
	return &flags, nil
}

// RoleMappings returns every mapping row for the user, active or not; the
// resolver filters and orders them.
func (s *GrantStore) RoleMappings(ctx context.Context, userID string) ([]models.RoleMapping, error) {
	var mappings []models.RoleMapping
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&mappings).Error; err != nil {
		return nil, storeErr("list role mappings", err)
	}
	return mappings, nil
}

// RolePermissions returns the role's bound permission catalog entries.
func (s *GrantStore) RolePermissions(ctx context.Context, roleID string) ([]models.RolePermission, error) {
	var perms []models.RolePermission
	if err := s.DB.WithContext(ctx).Where("role_id = ?", roleID).Find(&perms).Error; err != nil {
		return nil, storeErr("list role permissions", err)
	}
	return perms, nil
}

// Roles loads catalog entries by id.
func (s *GrantStore) Roles(ctx context.Context, roleIDs []string) ([]models.Role, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var roles []models.Role
	if err := s.DB.WithContext(ctx).Where("id IN ?", roleIDs).Find(&roles).Error; err != nil {
		return nil, storeErr("load roles", err)
	}
	return roles, nil
}

// GetDepartment returns the department by id, or nil when absent.
func (s *GrantStore) GetDepartment(ctx context.Context, id string) (*models.Department, error) {
	var dept models.Department
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&dept).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("load department", err)
	}
	return &dept, nil
}

// GetDepartmentByCode returns the department by uppercased code, or nil.
func (s *GrantStore) GetDepartmentByCode(ctx context.Context, code string) (*models.Department, error) {
	code = models.NormalizeDepartmentCode(code)
	var dept models.Department
	err := s.DB.WithContext(ctx).Where("code = ?", code).First(&dept).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("load department by code", err)
	}
	return &dept, nil
}

// GetContract returns the contract by id, or nil when absent.
func (s *GrantStore) GetContract(ctx context.Context, id string) (*models.Contract, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var c models.Contract
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("load contract", err)
	}
	return &c, nil
}

var _ authz.GrantStore = (*GrantStore)(nil)
