package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/contractdesk/contractdesk/models"
)

// ErrContractNotPending is returned when approving a contract outside the
// pending state.
var ErrContractNotPending = errors.New("contract is not pending approval")

// ContractStore handles contract and collaborator persistence.
type ContractStore struct{ DB *gorm.DB }

func NewContractStore(db *gorm.DB) *ContractStore { return &ContractStore{DB: db} }

func (s *ContractStore) Create(ctx context.Context, title, departmentID, createdBy string) (*models.Contract, error) {
	if strings.TrimSpace(title) == "" || departmentID == "" {
		return nil, gorm.ErrInvalidData
	}
	c := &models.Contract{
		ID:           models.NewID(),
		Title:        strings.TrimSpace(title),
		DepartmentID: departmentID,
		Status:       models.ContractDraft,
		CreatedBy:    createdBy,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	return c, s.DB.WithContext(ctx).Create(c).Error
}

func (s *ContractStore) GetByID(ctx context.Context, id string) (*models.Contract, error) {
	var c models.Contract
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ContractStore) List(ctx context.Context, departmentID string) ([]models.Contract, error) {
	q := s.DB.WithContext(ctx).Model(&models.Contract{})
	if departmentID != "" {
		q = q.Where("department_id = ?", departmentID)
	}
	var contracts []models.Contract
	return contracts, q.Order("created_at DESC").Find(&contracts).Error
}

// Submit moves a draft contract to pending.
func (s *ContractStore) Submit(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Model(&models.Contract{}).
		Where("id = ? AND status = ?", id, models.ContractDraft).
		Updates(map[string]interface{}{"status": models.ContractPending, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Approve records an approval decision on a pending contract. Authorization
// is the caller's responsibility; this is plain persistence.
func (s *ContractStore) Approve(ctx context.Context, id, approvedBy string, approve bool) error {
	status := models.ContractApproved
	if !approve {
		status = models.ContractRejected
	}
	now := time.Now().UTC()
	res := s.DB.WithContext(ctx).Model(&models.Contract{}).
		Where("id = ? AND status = ?", id, models.ContractPending).
		Updates(map[string]interface{}{
			"status":      status,
			"approved_by": approvedBy,
			"approved_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrContractNotPending
	}
	return nil
}

func (s *ContractStore) AddCollaborator(ctx context.Context, contractID, userID, role, addedBy string) (*models.ContractCollaborator, error) {
	cc := &models.ContractCollaborator{
		ID:         models.NewID(),
		ContractID: contractID,
		UserID:     userID,
		Role:       role,
		AddedBy:    addedBy,
		AddedAt:    time.Now().UTC(),
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Contract{}).Where("id = ?", contractID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(cc).Error
	})
	if err != nil {
		return nil, err
	}
	return cc, nil
}

func (s *ContractStore) RemoveCollaborator(ctx context.Context, contractID, userID string) error {
	return s.DB.WithContext(ctx).
		Where("contract_id = ? AND user_id = ?", contractID, userID).
		Delete(&models.ContractCollaborator{}).Error
}

func (s *ContractStore) ListCollaborators(ctx context.Context, contractID string) ([]models.ContractCollaborator, error) {
	var ccs []models.ContractCollaborator
	return ccs, s.DB.WithContext(ctx).Where("contract_id = ?", contractID).Order("added_at ASC").Find(&ccs).Error
}
