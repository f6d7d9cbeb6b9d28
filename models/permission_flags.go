package models

import "time"

// Action vocabulary. Direct permission flags map 1:1 onto these strings; role
// permissions and the wire format ("resource.action") use them lowercase.
const (
	ActionCreateContract = "create_contract"
	ActionCreateReport   = "create_report"
	ActionRead           = "read"
	ActionUpdate         = "update"
	ActionDelete         = "delete"
	ActionApprove        = "approve"
	ActionAssign         = "assign"
)

// Actions lists the fixed action vocabulary.
var Actions = []string{
	ActionCreateContract,
	ActionCreateReport,
	ActionRead,
	ActionUpdate,
	ActionDelete,
	ActionApprove,
	ActionAssign,
}

// PermissionFlags holds a user's direct permission booleans. One row per user,
// created on provisioning; a user without a row behaves as all-false.
type PermissionFlags struct {
	UserID         string    `gorm:"column:user_id;primaryKey" json:"user_id"`
	CreateContract bool      `gorm:"column:create_contract" json:"create_contract"`
	CreateReport   bool      `gorm:"column:create_report" json:"create_report"`
	Read           bool      `gorm:"column:read" json:"read"`
	Update         bool      `gorm:"column:update" json:"update"`
	Delete         bool      `gorm:"column:delete" json:"delete"`
	Approve        bool      `gorm:"column:approve" json:"approve"`
	Assign         bool      `gorm:"column:assign" json:"assign"`
	DepartmentCode *string   `gorm:"column:department_code" json:"department_code,omitempty"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (PermissionFlags) TableName() string { return "permission_flags" }

// HasAction reports whether the direct flag for the given action is set.
// Unknown actions are false.
func (f *PermissionFlags) HasAction(action string) bool {
	if f == nil {
		return false
	}
	switch action {
	case ActionCreateContract:
		return f.CreateContract
	case ActionCreateReport:
		return f.CreateReport
	case ActionRead:
		return f.Read
	case ActionUpdate:
		return f.Update
	case ActionDelete:
		return f.Delete
	case ActionApprove:
		return f.Approve
	case ActionAssign:
		return f.Assign
	}
	return false
}
