package models

import (
	"strings"
	"time"
)

// Well-known department codes. Department policies are registered against
// these; codes are stored and compared uppercase.
const (
	DeptAccounting     = "KT"
	DeptAdministrative = "HC"
	DeptLegal          = "LEGAL"
)

// Department represents an organizational unit contracts and users belong to.
type Department struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	Code      string    `gorm:"column:code;uniqueIndex" json:"code"`
	Name      string    `gorm:"column:name" json:"name"`
	Active    bool      `gorm:"column:active" json:"active"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Department) TableName() string { return "departments" }

// NormalizeDepartmentCode canonicalizes a department code for lookups.
func NormalizeDepartmentCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
