package authz

import (
	"context"

	"github.com/contractdesk/contractdesk/models"
)

// UserContext is the caller shape other subsystems (contract approval,
// collaborator management) consume from the authorization core.
type UserContext struct {
	Permissions models.PermissionFlags `json:"permissions"`
	Department  *models.Department     `json:"department,omitempty"`
}

// BuildUserContext assembles a UserContext from the grant store. A user with
// no flags row yields all-false permissions; a missing user propagates
// ErrNotFound from the store.
func BuildUserContext(ctx context.Context, store GrantStore, userID string) (UserContext, error) {
	flags, err := store.PermissionFlags(ctx, userID)
	if err != nil {
		return UserContext{}, err
	}
	uc := UserContext{}
	if flags != nil {
		uc.Permissions = *flags
	} else {
		uc.Permissions.UserID = userID
	}
	if code := uc.Permissions.DepartmentCode; code != nil && *code != "" {
		dept, err := store.GetDepartmentByCode(ctx, *code)
		if err != nil {
			return UserContext{}, err
		}
		uc.Department = dept
	}
	return uc, nil
}
