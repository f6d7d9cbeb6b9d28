package dto

import (
	"fmt"
	"strings"

	"github.com/contractdesk/contractdesk/authz"
	"github.com/contractdesk/contractdesk/models"
)

// CheckRequest is one permission check as posted by clients.
type CheckRequest struct {
	Resource   string            `json:"resource"`
	Action     string            `json:"action"`
	Conditions models.Conditions `json:"conditions,omitempty"`
	ScopeType  string            `json:"scope_type,omitempty"`
	ScopeID    string            `json:"scope_id,omitempty"`
}

// Validate normalizes and checks the request.
func (r *CheckRequest) Validate() error {
	r.Resource = strings.ToLower(strings.TrimSpace(r.Resource))
	r.Action = strings.ToLower(strings.TrimSpace(r.Action))
	if r.Resource == "" || r.Action == "" {
		return fmt.Errorf("resource and action are required")
	}
	if r.ScopeType != "" {
		st := models.NormalizeScopeType(r.ScopeType)
		if !st.IsValid() {
			return fmt.Errorf("invalid scope_type: %s", r.ScopeType)
		}
		if st != models.ScopeGlobal && r.ScopeID == "" {
			return fmt.Errorf("scope_id is required for scope_type %s", st)
		}
		r.ScopeType = string(st)
	}
	return nil
}

// ToCheck converts to the resolver's check shape.
func (r *CheckRequest) ToCheck() authz.Check {
	return authz.Check{Resource: r.Resource, Action: r.Action, Conditions: r.Conditions}
}

// Scope converts to the resolver's scope reference.
func (r *CheckRequest) Scope() authz.ScopeRef {
	if r.ScopeType == "" || r.ScopeID == "" {
		return authz.ScopeRef{}
	}
	return authz.ScopeRef{Type: models.ScopeType(r.ScopeType), ID: r.ScopeID}
}

// BatchCheckRequest is the body of check-any/check-all.
type BatchCheckRequest struct {
	Checks    []CheckRequest `json:"checks"`
	ScopeType string         `json:"scope_type,omitempty"`
	ScopeID   string         `json:"scope_id,omitempty"`
}

// Validate checks the batch and each member.
func (r *BatchCheckRequest) Validate() error {
	if len(r.Checks) == 0 {
		return fmt.Errorf("checks array is required")
	}
	for i := range r.Checks {
		if err := r.Checks[i].Validate(); err != nil {
			return fmt.Errorf("checks[%d]: %w", i, err)
		}
	}
	return nil
}

// Scope converts the batch-level scope.
func (r *BatchCheckRequest) Scope() authz.ScopeRef {
	if r.ScopeType == "" || r.ScopeID == "" {
		return authz.ScopeRef{}
	}
	return authz.ScopeRef{Type: models.NormalizeScopeType(r.ScopeType), ID: r.ScopeID}
}

// DecisionResponse mirrors an authz decision for API consumers.
type DecisionResponse struct {
	Allowed  bool   `json:"allowed"`
	Source   string `json:"source"`
	Rule     string `json:"rule,omitempty"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// FromDecision converts a decision.
func FromDecision(d authz.Decision) DecisionResponse {
	return DecisionResponse{
		Allowed:  d.Allowed,
		Source:   string(d.Source),
		Rule:     d.Rule,
		Resource: d.Resource,
		Action:   d.Action,
	}
}
