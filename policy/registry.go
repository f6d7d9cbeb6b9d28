package policy

import (
	"sync"

	"github.com/contractdesk/contractdesk/models"
)

// Registry is a keyed lookup of department policies. It is populated once at
// process start from the built-in catalog; Register stays safe for runtime
// extension since hot-reload registration may race with lookups.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]DepartmentPolicy
}

func NewRegistry() *Registry {
	return &Registry{policies: make(map[string]DepartmentPolicy)}
}

// Register upserts a policy keyed by its uppercased code. Idempotent.
func (r *Registry) Register(p DepartmentPolicy) {
	if p == nil {
		return
	}
	code := models.NormalizeDepartmentCode(p.Code())
	if code == "" {
		return
	}
	r.mu.Lock()
	r.policies[code] = p
	r.mu.Unlock()
}

// Get looks up a policy by department code, case-insensitively. A missing
// policy is not an error: resolution falls back to the role-mapping path.
func (r *Registry) Get(code string) (DepartmentPolicy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.policies[models.NormalizeDepartmentCode(code)]
	return p, ok
}

// List returns the registered policies in no particular order.
func (r *Registry) List() []DepartmentPolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DepartmentPolicy, 0, len(r.policies))
	for _, p := range r.policies {
		out = append(out, p)
	}
	return out
}

// Builtins returns the fixed catalog of built-in department policies.
func Builtins() []DepartmentPolicy {
	return []DepartmentPolicy{
		NewAccountingPolicy(),
		NewAdministrativePolicy(),
		NewLegalPolicy(),
	}
}

// NewBuiltinRegistry constructs a registry preloaded with the built-in catalog.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, p := range Builtins() {
		r.Register(p)
	}
	return r
}
