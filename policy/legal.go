package policy

import (
	"context"

	"github.com/contractdesk/contractdesk/models"
)

// LegalPolicy (code LEGAL) restricts contract approval to designated legal
// approvers and managers, regardless of any otherwise-allowing role mapping.
type LegalPolicy struct{}

func NewLegalPolicy() *LegalPolicy { return &LegalPolicy{} }

func (*LegalPolicy) Code() string { return models.DeptLegal }
func (*LegalPolicy) Name() string { return "Legal" }

func (*LegalPolicy) Features() []string {
	return []string{"legal_approver"}
}

func (*LegalPolicy) CanApprove(_ context.Context, _ string, pc Context) (bool, error) {
	if pc.HasCapability("legal_approver") {
		return true, nil
	}
	return pc.HasRole("MANAGER"), nil
}
