package instance

import (
	"context"
	"sync"
	"sync/atomic"

	"govkernel/internal/api"
	"govkernel/pkg/logging"
)

// Pool is the set of Instances backing one module at a point in time: at
// most one newest "default" version routable without an explicit router
// decision, zero or more older versions draining toward destruction, and a
// bound on how many can be draining at once so a module stuck re-deploying
// cannot accumulate unbounded dying instances.
//
// Reads (ActiveInstances, GetDefault, HasAvailable) take a lock-free
// snapshot of the membership list; only membership changes (Add,
// AddCanary, cleanup, Shutdown, Prune) take the mutex. MoveToDying only
// flips instance flags and the default pointer, and takes no lock.
type Pool struct {
	moduleID api.ModuleId
	maxDying int

	mu      sync.Mutex
	members atomic.Pointer[[]*Instance]
	def     atomic.Pointer[Instance]
}

// NewPool constructs an empty pool. maxDying bounds how many instances may
// be simultaneously draining before CanAdd reports false; zero or negative
// means unbounded. Add itself never refuses an instance.
func NewPool(moduleID api.ModuleId, maxDying int) *Pool {
	p := &Pool{moduleID: moduleID, maxDying: maxDying}
	empty := make([]*Instance, 0)
	p.members.Store(&empty)
	return p
}

func (p *Pool) snapshot() []*Instance {
	ptr := p.members.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// CanAdd reports whether the dying queue has room for one more
// superseded instance. Call before adding a new version when the old one
// will be moved to dying.
func (p *Pool) CanAdd() bool {
	if p.maxDying <= 0 {
		return true
	}
	count := 0
	for _, inst := range p.snapshot() {
		if inst.IsDying() && !inst.IsDestroyed() {
			count++
		}
	}
	return count < p.maxDying
}

// Add inserts inst into the pool and unconditionally makes it the new
// default. The caller is responsible for starting inst's container and
// calling MarkReady before traffic should reach it.
func (p *Pool) Add(inst *Instance) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := append(append([]*Instance(nil), p.snapshot()...), inst)
	p.members.Store(&next)
	p.def.Store(inst)
	logging.Debug("InstancePool", "module %s added version %s (pool size %d)", p.moduleID, inst.Version(), len(next))
}

// AddCanary inserts inst into the pool without touching the default
// pointer, so it only receives traffic a TrafficRouter explicitly routes
// to it rather than becoming the fallback for unmatched calls.
func (p *Pool) AddCanary(inst *Instance) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := append(append([]*Instance(nil), p.snapshot()...), inst)
	p.members.Store(&next)
	logging.Debug("InstancePool", "module %s added canary version %s (pool size %d)", p.moduleID, inst.Version(), len(next))
}

// MoveToDying marks the instance at version dying, so it stops receiving
// new traffic but keeps draining whatever it already admitted. Returns the
// instance found, or nil if no member has that version.
func (p *Pool) MoveToDying(version api.Version) *Instance {
	for _, inst := range p.snapshot() {
		if inst.Version() == version {
			inst.MarkDying()
			p.def.CompareAndSwap(inst, nil)
			return inst
		}
	}
	return nil
}

// GetDefault returns the current default instance (the newest one added),
// or nil if the pool is empty or the default was superseded and cleared.
func (p *Pool) GetDefault() *Instance {
	return p.def.Load()
}

// ActiveInstances returns a snapshot of every ready, non-dying instance —
// the candidate set a TrafficRouter chooses among.
func (p *Pool) ActiveInstances() []*Instance {
	var out []*Instance
	for _, inst := range p.snapshot() {
		if inst.IsReady() {
			out = append(out, inst)
		}
	}
	return out
}

// HasAvailable reports whether any instance can currently serve a call.
func (p *Pool) HasAvailable() bool {
	for _, inst := range p.snapshot() {
		if inst.IsReady() {
			return true
		}
	}
	return false
}

// CleanupIdle destroys every dying instance with no in-flight calls and
// removes it from the pool. Returns the number destroyed.
func (p *Pool) CleanupIdle(ctx context.Context) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	members := p.snapshot()
	kept := make([]*Instance, 0, len(members))
	destroyed := 0
	for _, inst := range members {
		if inst.IsDying() && inst.IsIdle() && !inst.IsDestroyed() {
			inst.Destroy(ctx)
			destroyed++
			continue
		}
		kept = append(kept, inst)
	}
	if destroyed > 0 {
		p.members.Store(&kept)
		logging.Debug("InstancePool", "module %s cleaned up %d idle instance(s)", p.moduleID, destroyed)
	}
	return destroyed
}

// ForceCleanupAll destroys every dying instance regardless of in-flight
// calls and removes it from the pool. Returns the number destroyed.
func (p *Pool) ForceCleanupAll(ctx context.Context) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	members := p.snapshot()
	kept := make([]*Instance, 0, len(members))
	destroyed := 0
	for _, inst := range members {
		if inst.IsDying() && !inst.IsDestroyed() {
			inst.Destroy(ctx)
			destroyed++
			continue
		}
		kept = append(kept, inst)
	}
	if destroyed > 0 {
		p.members.Store(&kept)
		logging.Warn("InstancePool", "module %s force-destroyed %d instance(s) past grace period", p.moduleID, destroyed)
	}
	return destroyed
}

// Shutdown marks every member dying and destroys all of them unconditionally,
// returning only once the pool is empty. Used during module uninstall/runtime
// shutdown where no further draining grace period applies.
func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, inst := range p.snapshot() {
		inst.MarkDying()
		inst.Destroy(ctx)
	}
	empty := make([]*Instance, 0)
	p.members.Store(&empty)
	p.def.Store(nil)
}

// Prune removes any already-destroyed instances from the membership list
// without attempting to destroy anything itself. Used after an out-of-band
// Destroy (e.g. a forced cleanup timer) to keep Members/ActiveInstances
// accurate.
func (p *Pool) Prune() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	members := p.snapshot()
	kept := make([]*Instance, 0, len(members))
	removed := 0
	for _, inst := range members {
		if inst.IsDestroyed() {
			removed++
			continue
		}
		kept = append(kept, inst)
	}
	if removed > 0 {
		p.members.Store(&kept)
	}
	return removed
}

// Members returns a snapshot of every instance currently in the pool,
// ready or dying, for inspection (e.g. by the runtime's Versions and
// Instances, which back the CLI's list commands).
func (p *Pool) Members() []*Instance {
	return append([]*Instance(nil), p.snapshot()...)
}
