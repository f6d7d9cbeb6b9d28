package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/contractdesk/contractdesk/dto"
	"github.com/contractdesk/contractdesk/store"
)

// HandleListContracts returns contracts, optionally filtered by department.
func (s *Server) HandleListContracts(c *gin.Context) {
	contracts, err := s.Contracts.List(c.Request.Context(), c.Query("department_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	out := make([]dto.ContractResponse, 0, len(contracts))
	for i := range contracts {
		out = append(out, dto.FromContract(&contracts[i]))
	}
	c.JSON(http.StatusOK, gin.H{"contracts": out})
}

// HandleCreateContract creates a draft contract owned by the caller.
func (s *Server) HandleCreateContract(c *gin.Context) {
	var req dto.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "invalid JSON payload"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": err.Error()})
		return
	}
	contract, err := s.Contracts.Create(c.Request.Context(), req.Title, req.DepartmentID, c.GetString(ctxUserID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusCreated, dto.FromContract(contract))
}

// HandleGetContract returns one contract by id.
func (s *Server) HandleGetContract(c *gin.Context) {
	contract, err := s.Contracts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	if contract == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, dto.FromContract(contract))
}

// HandleSubmitContract moves a draft to pending approval.
func (s *Server) HandleSubmitContract(c *gin.Context) {
	err := s.Contracts.Submit(c.Request.Context(), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_state", "error_description": "contract is not a draft"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "pending"})
}

// HandleApproveContract records an approve or reject decision on a pending
// contract. The permission middleware has already resolved whether the caller
// may approve in this contract's department.
func (s *Server) HandleApproveContract(c *gin.Context) {
	var req dto.ApproveContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "invalid JSON payload"})
		return
	}
	err := s.Contracts.Approve(c.Request.Context(), c.Param("id"), c.GetString(ctxUserID), req.Approve)
	if errors.Is(err, store.ErrContractNotPending) {
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_state", "error_description": "contract is not pending approval"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	status := "approved"
	if !req.Approve {
		status = "rejected"
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// HandleExportContract streams a plain-text rendering of a contract. Export
// sits behind its own permission so report-only users can be granted it
// without update rights.
func (s *Server) HandleExportContract(c *gin.Context) {
	contract, err := s.Contracts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	if contract == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	body := fmt.Sprintf("Contract %s\nTitle: %s\nDepartment: %s\nStatus: %s\nExported: %s\n",
		contract.ID, contract.Title, contract.DepartmentID, contract.Status,
		time.Now().UTC().Format(time.RFC3339))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=contract-%s.txt", contract.ID))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

// HandleListCollaborators returns the collaborator roster of a contract.
func (s *Server) HandleListCollaborators(c *gin.Context) {
	ccs, err := s.Contracts.ListCollaborators(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"collaborators": ccs})
}

// HandleAddCollaborator adds a user to a contract's roster.
func (s *Server) HandleAddCollaborator(c *gin.Context) {
	var req dto.AddCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "invalid JSON payload"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": err.Error()})
		return
	}
	cc, err := s.Contracts.AddCollaborator(c.Request.Context(), c.Param("id"), req.UserID, req.Role, c.GetString(ctxUserID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusCreated, cc)
}

// HandleRemoveCollaborator removes a user from a contract's roster.
func (s *Server) HandleRemoveCollaborator(c *gin.Context) {
	if err := s.Contracts.RemoveCollaborator(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.Status(http.StatusNoContent)
}
