package store

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/contractdesk/contractdesk/models"
)

// DepartmentStore handles department persistence.
type DepartmentStore struct{ DB *gorm.DB }

func NewDepartmentStore(db *gorm.DB) *DepartmentStore { return &DepartmentStore{DB: db} }

func (s *DepartmentStore) Create(ctx context.Context, code, name string) (*models.Department, error) {
	code = models.NormalizeDepartmentCode(code)
	if code == "" || strings.TrimSpace(name) == "" {
		return nil, gorm.ErrInvalidData
	}
	d := &models.Department{
		ID:        models.NewID(),
		Code:      code,
		Name:      strings.TrimSpace(name),
		Active:    true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.DB.WithContext(ctx).Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DepartmentStore) List(ctx context.Context) ([]models.Department, error) {
	var depts []models.Department
	return depts, s.DB.WithContext(ctx).Order("code ASC").Find(&depts).Error
}

func (s *DepartmentStore) Update(ctx context.Context, code, name string, active bool) error {
	code = models.NormalizeDepartmentCode(code)
	return s.DB.WithContext(ctx).Model(&models.Department{}).
		Where("code = ?", code).
		Updates(map[string]interface{}{"name": name, "active": active, "updated_at": time.Now().UTC()}).Error
}
