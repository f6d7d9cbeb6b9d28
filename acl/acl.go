// Package acl holds the client-side mirror of granted permission strings used
// for UI gating. It is advisory only: the server-side resolver is re-checked
// for every state-changing operation.
package acl

import (
	"strings"
	"sync"
)

// Wildcard grants all access when present in the mirror.
const Wildcard = "*"

// Grants is a set of permission strings, each "resource.action" lowercase or
// the wildcard "*". The set is rebuilt wholesale whenever the server's
// effective-permission view changes; it is never partially patched.
type Grants struct {
	mu    sync.RWMutex
	perms map[string]struct{}
}

func NewGrants() *Grants {
	return &Grants{perms: make(map[string]struct{})}
}

// SetGrants atomically replaces the whole grant set.
func (g *Grants) SetGrants(grants []string) {
	next := make(map[string]struct{}, len(grants))
	for _, p := range grants {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			next[p] = struct{}{}
		}
	}
	g.mu.Lock()
	g.perms = next
	g.mu.Unlock()
}

// Has reports whether perm is present, or the wildcard is.
func (g *Grants) Has(perm string) bool {
	perm = strings.ToLower(strings.TrimSpace(perm))
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, ok := g.perms[Wildcard]; ok {
		return true
	}
	_, ok := g.perms[perm]
	return ok
}

// Can checks the "resource.action" form.
func (g *Grants) Can(resource, action string) bool {
	return g.Has(resource + "." + action)
}

// List returns the current grant strings in no particular order.
func (g *Grants) List() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.perms))
	for p := range g.perms {
		out = append(out, p)
	}
	return out
}
