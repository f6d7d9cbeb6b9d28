package policy

import (
	"context"

	"github.com/contractdesk/contractdesk/models"
)

// AccountingPolicy (code KT) gates contract approval on accounting sign-off
// authority: the chief accountant role or an explicit budget approver flag.
type AccountingPolicy struct{}

func NewAccountingPolicy() *AccountingPolicy { return &AccountingPolicy{} }

func (*AccountingPolicy) Code() string { return models.DeptAccounting }
func (*AccountingPolicy) Name() string { return "Accounting" }

func (*AccountingPolicy) Features() []string {
	return []string{"budget_approver"}
}

func (*AccountingPolicy) CanApprove(_ context.Context, _ string, pc Context) (bool, error) {
	if pc.HasCapability("budget_approver") {
		return true, nil
	}
	return pc.HasRole("CHIEF_ACCOUNTANT") || pc.HasRole("MANAGER"), nil
}
