package models

import "time"

// ContractStatus is an enum-like string for contract workflow state.
type ContractStatus string

const (
	ContractDraft    ContractStatus = "draft"
	ContractPending  ContractStatus = "pending"
	ContractApproved ContractStatus = "approved"
	ContractRejected ContractStatus = "rejected"
)

// Contract is a managed contract record owned by a department.
type Contract struct {
	ID           string         `gorm:"column:id;primaryKey" json:"id"`
	Title        string         `gorm:"column:title" json:"title"`
	DepartmentID string         `gorm:"column:department_id;index" json:"department_id"`
	Status       ContractStatus `gorm:"column:status" json:"status"`
	CreatedBy    string         `gorm:"column:created_by" json:"created_by"`
	ApprovedBy   *string        `gorm:"column:approved_by" json:"approved_by,omitempty"`
	ApprovedAt   *time.Time     `gorm:"column:approved_at" json:"approved_at,omitempty"`
	CreatedAt    time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (Contract) TableName() string { return "contracts" }

// ContractCollaborator links a user to a contract with a collaboration role.
type ContractCollaborator struct {
	ID         string    `gorm:"column:id;primaryKey" json:"id"`
	ContractID string    `gorm:"column:contract_id;index" json:"contract_id"`
	UserID     string    `gorm:"column:user_id;index" json:"user_id"`
	Role       string    `gorm:"column:role" json:"role"`
	AddedBy    string    `gorm:"column:added_by" json:"added_by"`
	AddedAt    time.Time `gorm:"column:added_at" json:"added_at"`
}

func (ContractCollaborator) TableName() string { return "contract_collaborators" }
