package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/contractdesk/contractdesk/models"
)

// ErrInvalidCredentials is returned when username/password verification fails.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore handles user persistence and credential checks.
type UserStore struct{ DB *gorm.DB }

func NewUserStore(db *gorm.DB) *UserStore { return &UserStore{DB: db} }

// Create inserts a user with a bcrypt password hash and an empty flags row.
func (s *UserStore) Create(ctx context.Context, username, password string, departmentID *string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, gorm.ErrInvalidData
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:           models.NewID(),
		Username:     username,
		PasswordHash: string(hash),
		DepartmentID: departmentID,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		flags := models.PermissionFlags{UserID: u.ID, UpdatedAt: time.Now().UTC()}
		if departmentID != nil {
			var dept models.Department
			if err := tx.Where("id = ?", *departmentID).First(&dept).Error; err != nil {
				return err
			}
			flags.DepartmentCode = &dept.Code
		}
		return tx.Create(&flags).Error
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID returns the user, or nil when absent.
func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate verifies a username/password pair against the stored bcrypt
// hash. Inactive users cannot authenticate.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// UpdateFlags replaces the user's direct permission flags. Administrative
// action only; the authorization core never writes.
func (s *UserStore) UpdateFlags(ctx context.Context, flags models.PermissionFlags) error {
	flags.UpdatedAt = time.Now().UTC()
	return s.DB.WithContext(ctx).Save(&flags).Error
}
