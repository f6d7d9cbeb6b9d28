package models

import "time"

// User represents an application user, optionally attached to a department.
type User struct {
	ID           string    `gorm:"column:id;primaryKey" json:"id"`
	Username     string    `gorm:"column:username;uniqueIndex" json:"username"`
	DisplayName  *string   `gorm:"column:display_name" json:"display_name,omitempty"`
	PasswordHash string    `gorm:"column:password_hash" json:"-"`
	DepartmentID *string   `gorm:"column:department_id" json:"department_id,omitempty"`
	Active       bool      `gorm:"column:active" json:"active"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }
