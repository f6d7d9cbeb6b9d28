package authz

import "errors"

// Sentinel errors for the authorization core. Callers must treat any error
// from a check as deny (fail-closed) and surface ErrStoreUnavailable as an
// infrastructure failure rather than a normal denial.
var (
	// ErrNotFound indicates a referenced user/department/role is absent,
	// which points at a data-integrity problem upstream.
	ErrNotFound = errors.New("authz: not found")

	// ErrStoreUnavailable indicates the underlying grant store fetch failed
	// (timeout, connection). Distinguishable from a plain false so callers
	// can answer 5xx instead of a silent deny.
	ErrStoreUnavailable = errors.New("authz: grant store unavailable")
)
