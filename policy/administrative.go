package policy

import (
	"context"

	"github.com/contractdesk/contractdesk/models"
)

// AdministrativePolicy (code HC) lets office managers and explicitly flagged
// administrative approvers sign off contracts.
type AdministrativePolicy struct{}

func NewAdministrativePolicy() *AdministrativePolicy { return &AdministrativePolicy{} }

func (*AdministrativePolicy) Code() string { return models.DeptAdministrative }
func (*AdministrativePolicy) Name() string { return "Administrative" }

func (*AdministrativePolicy) Features() []string {
	return []string{"admin_approver"}
}

func (*AdministrativePolicy) CanApprove(_ context.Context, _ string, pc Context) (bool, error) {
	if pc.HasCapability("admin_approver") {
		return true, nil
	}
	return pc.HasRole("MANAGER"), nil
}
