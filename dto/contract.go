package dto

import (
	"fmt"
	"strings"

	"github.com/contractdesk/contractdesk/models"
)

// CreateContractRequest is the body of POST /contracts.
type CreateContractRequest struct {
	Title        string `json:"title"`
	DepartmentID string `json:"department_id"`
}

func (r *CreateContractRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(r.DepartmentID) == "" {
		return fmt.Errorf("department_id is required")
	}
	return nil
}

// ApproveContractRequest is the body of POST /contracts/:id/approve.
type ApproveContractRequest struct {
	Approve bool `json:"approve"`
}

// AddCollaboratorRequest is the body of POST /contracts/:id/collaborators.
type AddCollaboratorRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (r *AddCollaboratorRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("user_id is required")
	}
	if r.Role == "" {
		r.Role = "viewer"
	}
	return nil
}

// ContractResponse is the wire shape of a contract.
type ContractResponse struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	DepartmentID string  `json:"department_id"`
	Status       string  `json:"status"`
	CreatedBy    string  `json:"created_by"`
	ApprovedBy   *string `json:"approved_by,omitempty"`
}

func FromContract(c *models.Contract) ContractResponse {
	return ContractResponse{
		ID:           c.ID,
		Title:        c.Title,
		DepartmentID: c.DepartmentID,
		Status:       string(c.Status),
		CreatedBy:    c.CreatedBy,
		ApprovedBy:   c.ApprovedBy,
	}
}
