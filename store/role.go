package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/contractdesk/contractdesk/models"
)

// RoleStore manages the role catalog and role mapping grants.
type RoleStore struct{ DB *gorm.DB }

func NewRoleStore(db *gorm.DB) *RoleStore { return &RoleStore{DB: db} }

// UpsertRole creates or updates a catalog entry keyed by name.
func (s *RoleStore) UpsertRole(ctx context.Context, name, description string) (*models.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, gorm.ErrInvalidData
	}
	var out *models.Role
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Role
		err := tx.Where("name = ?", name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role := models.Role{ID: models.NewID(), Name: name, Description: description, CreatedAt: time.Now().UTC()}
			out = &role
			return tx.Create(&role).Error
		} else if err != nil {
			return err
		}
		existing.Description = description
		out = &existing
		return tx.Model(&models.Role{}).Where("id = ?", existing.ID).Update("description", description).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RoleStore) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	return roles, s.DB.WithContext(ctx).Order("name ASC").Find(&roles).Error
}

// BindPermission attaches a (resource, action) catalog entry to a role.
func (s *RoleStore) BindPermission(ctx context.Context, roleID, resource, action string, schema models.Conditions) (*models.RolePermission, error) {
	resource = strings.ToLower(strings.TrimSpace(resource))
	action = strings.ToLower(strings.TrimSpace(action))
	if resource == "" || action == "" {
		return nil, gorm.ErrInvalidData
	}
	rp := &models.RolePermission{
		ID:               models.NewID(),
		RoleID:           roleID,
		Resource:         resource,
		Action:           action,
		ConditionsSchema: schema,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Role{}).Where("id = ?", roleID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(rp).Error
	})
	if err != nil {
		return nil, err
	}
	return rp, nil
}

// Grant creates a role mapping for a user. scope_id is required for
// department and contract scopes and must reference a live row.
func (s *RoleStore) Grant(ctx context.Context, userID, roleID string, scope models.ScopeType, scopeID *string, grantedBy string, expiresAt *time.Time, conds, metadata models.Conditions) (*models.RoleMapping, error) {
	if !scope.IsValid() {
		return nil, gorm.ErrInvalidData
	}
	if scope != models.ScopeGlobal && (scopeID == nil || *scopeID == "") {
		return nil, gorm.ErrInvalidData
	}
	m := &models.RoleMapping{
		ID:         models.NewID(),
		UserID:     userID,
		RoleID:     roleID,
		Scope:      scope,
		ScopeID:    scopeID,
		GrantedBy:  grantedBy,
		GrantedAt:  time.Now().UTC(),
		ExpiresAt:  expiresAt,
		IsActive:   true,
		Conditions: conds,
		Metadata:   metadata,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Role{}).Where("id = ?", roleID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		switch scope {
		case models.ScopeDepartment:
			if err := tx.Model(&models.Department{}).Where("id = ?", *scopeID).Count(&count).Error; err != nil {
				return err
			}
		case models.ScopeContract:
			if err := tx.Model(&models.Contract{}).Where("id = ?", *scopeID).Count(&count).Error; err != nil {
				return err
			}
		}
		if scope != models.ScopeGlobal && count == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Revoke deactivates a mapping. Rows are never hard-deleted; the resolver
// already ignores inactive grants.
func (s *RoleStore) Revoke(ctx context.Context, mappingID string) error {
	res := s.DB.WithContext(ctx).Model(&models.RoleMapping{}).
		Where("id = ? AND is_active = ?", mappingID, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListMappings returns all mapping rows for a user, newest grant first.
func (s *RoleStore) ListMappings(ctx context.Context, userID string) ([]models.RoleMapping, error) {
	var mappings []models.RoleMapping
	return mappings, s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("granted_at DESC").
		Find(&mappings).Error
}
