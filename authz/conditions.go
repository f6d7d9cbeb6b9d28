package authz

import "github.com/contractdesk/contractdesk/models"

// MatchConditions reports whether a grant's condition map accepts a request's
// condition map. A grant with no conditions matches any request. Otherwise
// every key of the grant must be present in the request with a structurally
// equal value; extra request keys are ignored. Closed-world on the grant side,
// open-world on the request side, so condition-gated grants never over-match.
func MatchConditions(grant, request models.Conditions) bool {
	if len(grant) == 0 {
		return true
	}
	for k, gv := range grant {
		rv, ok := request[k]
		if !ok || !gv.Equal(rv) {
			return false
		}
	}
	return true
}
