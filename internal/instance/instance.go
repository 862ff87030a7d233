package instance

import (
	"context"
	"sync"
	"sync/atomic"

	"govkernel/internal/api"
	"govkernel/pkg/logging"
)

// Instance is one running copy of a module's code: its container, the
// version it was built from, the labels it advertises for routing, and the
// lifecycle flags that gate whether it can accept new work.
//
// The zero value is not usable; construct with New.
type Instance struct {
	moduleID   api.ModuleId
	version    api.Version
	definition *api.ModuleDefinition
	labels     api.LabelSet
	container  api.ModuleContainer

	ready     atomic.Bool
	dying     atomic.Bool
	destroyed atomic.Bool

	activeRequests atomic.Int64

	destroyMu sync.Mutex
}

// New wraps container as a not-yet-ready Instance. Call MarkReady once the
// container has finished starting.
func New(moduleID api.ModuleId, version api.Version, definition *api.ModuleDefinition, labels api.LabelSet, container api.ModuleContainer) *Instance {
	return &Instance{
		moduleID:   moduleID,
		version:    version,
		definition: definition,
		labels:     labels,
		container:  container,
	}
}

func (i *Instance) ModuleId() api.ModuleId          { return i.moduleID }
func (i *Instance) Version() api.Version            { return i.version }
func (i *Instance) Labels() api.LabelSet            { return i.labels }
func (i *Instance) Definition() *api.ModuleDefinition { return i.definition }
func (i *Instance) Container() api.ModuleContainer  { return i.container }

// IsReady reports whether this instance has finished starting and is not
// yet marked dying.
func (i *Instance) IsReady() bool { return i.ready.Load() && !i.dying.Load() }

// IsDying reports whether this instance has been superseded and is only
// draining in-flight requests.
func (i *Instance) IsDying() bool { return i.dying.Load() }

// IsDestroyed reports whether Destroy has already run.
func (i *Instance) IsDestroyed() bool { return i.destroyed.Load() }

// ContainerActive asks the embedded container whether it still considers
// itself running. A dying instance can still report ContainerActive==true
// while it drains.
func (i *Instance) ContainerActive() bool {
	if i.container == nil {
		return false
	}
	return i.container.IsActive()
}

// MarkReady flips the instance into the active, routable set. Idempotent.
func (i *Instance) MarkReady() {
	i.ready.Store(true)
	logging.Debug("Instance", "module %s version %s marked ready", i.moduleID, i.version)
}

// MarkDying removes the instance from future routing decisions without
// interrupting calls already in flight. Idempotent.
func (i *Instance) MarkDying() {
	if i.dying.CompareAndSwap(false, true) {
		logging.Debug("Instance", "module %s version %s marked dying", i.moduleID, i.version)
	}
}

// TryEnter admits one more in-flight call if the instance is still
// accepting work. Every successful TryEnter must be paired with exactly
// one Exit.
func (i *Instance) TryEnter() bool {
	if i.destroyed.Load() || i.dying.Load() {
		return false
	}
	if !i.ready.Load() {
		return false
	}
	if !i.ContainerActive() {
		return false
	}
	i.activeRequests.Add(1)
	// Re-check after incrementing: a MarkDying racing with TryEnter must
	// never leave an admitted call uncounted by IsIdle.
	if i.destroyed.Load() || i.dying.Load() {
		i.activeRequests.Add(-1)
		return false
	}
	return true
}

// Exit releases one admission acquired by TryEnter.
func (i *Instance) Exit() {
	i.activeRequests.Add(-1)
}

// ActiveRequestCount reports the number of calls currently admitted.
func (i *Instance) ActiveRequestCount() int64 {
	return i.activeRequests.Load()
}

// IsIdle reports whether the instance has no in-flight calls, the
// precondition for Destroy.
func (i *Instance) IsIdle() bool {
	return i.activeRequests.Load() == 0
}

// Destroy stops the underlying container exactly once. Safe to call
// concurrently and safe to call on an instance that was never started.
func (i *Instance) Destroy(ctx context.Context) {
	i.destroyMu.Lock()
	defer i.destroyMu.Unlock()
	if i.destroyed.Load() {
		return
	}
	i.dying.Store(true)
	if i.container != nil {
		i.container.Stop()
	}
	i.destroyed.Store(true)
	logging.Debug("Instance", "module %s version %s destroyed", i.moduleID, i.version)
}
