package permission

import (
	"path"
	"sync"

	"govkernel/internal/api"
	"govkernel/pkg/logging"
)

// AllowAll is a PermissionService that grants every request. Useful for
// local development and for tests that don't exercise permission logic.
type AllowAll struct{}

func (AllowAll) IsAllowed(caller api.ModuleId, permission string, kind api.AccessKind) bool {
	return true
}
func (AllowAll) RemovePlugin(moduleID api.ModuleId) {}
func (AllowAll) Audit(moduleID api.ModuleId, capability, operation string, allowed bool) {
	logging.Audit(logging.AuditEvent{
		Caller:  string(moduleID),
		Target:  capability,
		Action:  operation,
		Allowed: allowed,
		Success: allowed,
	})
}

// Pattern is a PermissionService that checks a caller's requested
// permission against glob patterns (path.Match syntax) declared in that
// module's PermissionGrant list, set via SetGrants at install time.
type Pattern struct {
	mu     sync.RWMutex
	grants map[api.ModuleId][]api.PermissionGrant
}

// New constructs an empty Pattern permission service.
func New() *Pattern {
	return &Pattern{grants: make(map[api.ModuleId][]api.PermissionGrant)}
}

// SetGrants replaces the permission grants recorded for moduleID. The
// manager does not call it; the code that installs a module records its
// grants here.
func (p *Pattern) SetGrants(moduleID api.ModuleId, grants []api.PermissionGrant) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.grants[moduleID] = append([]api.PermissionGrant(nil), grants...)
}

// IsAllowed reports whether caller has a grant whose pattern matches
// permission under the requested AccessKind.
func (p *Pattern) IsAllowed(caller api.ModuleId, permission string, kind api.AccessKind) bool {
	p.mu.RLock()
	grants := p.grants[caller]
	p.mu.RUnlock()

	for _, g := range grants {
		if g.AccessKind != kind {
			continue
		}
		if matched, err := path.Match(g.Pattern, permission); err == nil && matched {
			return true
		}
	}
	return false
}

// RemovePlugin drops every grant recorded for moduleID.
func (p *Pattern) RemovePlugin(moduleID api.ModuleId) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.grants, moduleID)
}

// Audit records a permission decision via the shared audit log.
func (p *Pattern) Audit(moduleID api.ModuleId, capability, operation string, allowed bool) {
	logging.Audit(logging.AuditEvent{
		Caller:  string(moduleID),
		Target:  capability,
		Action:  operation,
		Allowed: allowed,
		Success: allowed,
	})
}
