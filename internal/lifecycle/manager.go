package lifecycle

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"govkernel/internal/api"
	"govkernel/internal/bus"
	"govkernel/internal/instance"
	"govkernel/pkg/logging"
)

// Manager owns the single writer mutex for one module's instance
// transitions and keeps the module's bus informed of every transition.
// writerMu serializes the pool-mutating tail of Deploy/DeployCanary (the
// re-check-and-add step); it is distinct from cleanupMu, which only
// prevents overlapping background sweeps.
type Manager struct {
	moduleID          api.ModuleId
	pool              *instance.Pool
	bus               *bus.Bus
	forceCleanupDelay time.Duration

	writerMu  sync.Mutex
	cleanupMu sync.Mutex
	shutdown  atomic.Bool
}

// NewManager constructs a Manager. forceCleanupDelay bounds how long a
// dying instance is given to drain before it is destroyed regardless of
// in-flight calls.
func NewManager(moduleID api.ModuleId, pool *instance.Pool, moduleBus *bus.Bus, forceCleanupDelay time.Duration) *Manager {
	return &Manager{
		moduleID:          moduleID,
		pool:              pool,
		bus:               moduleBus,
		forceCleanupDelay: forceCleanupDelay,
	}
}

// Deploy adds inst as the module's new default instance: starts its
// container, marks it ready, adds it to the pool, and — if a previous
// default existed — moves that one to dying and schedules its destruction.
// Returns ResourceExhausted if the dying queue has no room for the
// instance being superseded, and LifecycleError if the module has already
// been shut down.
func (m *Manager) Deploy(ctx context.Context, inst *instance.Instance) error {
	if m.shutdown.Load() {
		return api.ErrLifecycle("module is shutting down, rejecting new deploy", nil)
	}
	if !m.pool.CanAdd() {
		return api.ErrResourceExhausted(m.moduleID)
	}

	m.bus.Publish(api.NewInstanceUpgrading(m.moduleID, inst.Version()))
	if err := inst.Container().Start(ctx); err != nil {
		inst.Destroy(ctx)
		return api.ErrLifecycle("container failed to start", err)
	}
	inst.MarkReady()

	m.writerMu.Lock()
	defer m.writerMu.Unlock()

	// Re-check backpressure under the writer lock: CanAdd's first read
	// happened before the unlocked container start, so a second deploy
	// racing the same module could have filled the dying queue meanwhile.
	if !m.pool.CanAdd() {
		inst.Destroy(ctx)
		return api.ErrResourceExhausted(m.moduleID)
	}
	if !inst.IsReady() {
		inst.Destroy(ctx)
		return api.ErrLifecycle("instance was not ready at add time", nil)
	}

	previous := m.pool.GetDefault()
	m.pool.Add(inst)
	m.bus.Publish(api.NewInstanceReady(m.moduleID, inst.Version()))
	logging.Info("Lifecycle", "module %s: version %s is now serving traffic", m.moduleID, inst.Version())

	if previous != nil {
		m.retire(previous)
	}
	return nil
}

// DeployCanary adds inst to the pool as an additional ready instance
// without superseding the current default: only traffic a TrafficRouter
// explicitly steers toward it (by label match) will reach it.
func (m *Manager) DeployCanary(ctx context.Context, inst *instance.Instance) error {
	if m.shutdown.Load() {
		return api.ErrLifecycle("module is shutting down, rejecting new deploy", nil)
	}
	if !m.pool.CanAdd() {
		return api.ErrResourceExhausted(m.moduleID)
	}

	m.bus.Publish(api.NewInstanceUpgrading(m.moduleID, inst.Version()))
	if err := inst.Container().Start(ctx); err != nil {
		inst.Destroy(ctx)
		return api.ErrLifecycle("canary container failed to start", err)
	}
	inst.MarkReady()

	m.writerMu.Lock()
	defer m.writerMu.Unlock()

	if !m.pool.CanAdd() {
		inst.Destroy(ctx)
		return api.ErrResourceExhausted(m.moduleID)
	}

	m.pool.AddCanary(inst)
	m.bus.Publish(api.NewInstanceReady(m.moduleID, inst.Version()))
	logging.Info("Lifecycle", "module %s: canary version %s is ready for labeled traffic", m.moduleID, inst.Version())
	return nil
}

// retire marks an instance dying, publishes the transition, and schedules
// a forced destroy if it has not drained naturally by forceCleanupDelay.
func (m *Manager) retire(inst *instance.Instance) {
	inst.MarkDying()
	m.bus.Publish(api.NewInstanceDying(m.moduleID, inst.Version()))

	if m.forceCleanupDelay <= 0 {
		return
	}
	time.AfterFunc(m.forceCleanupDelay, func() {
		m.forceDestroy(inst)
	})
}

func (m *Manager) forceDestroy(inst *instance.Instance) {
	if inst.IsDestroyed() {
		return
	}
	if !inst.IsIdle() {
		logging.Warn("Lifecycle", "module %s: version %s still has %d in-flight call(s) past the grace period, destroying anyway",
			m.moduleID, inst.Version(), inst.ActiveRequestCount())
	}
	inst.Destroy(context.Background())
	m.pool.Prune()
	m.bus.Publish(api.NewInstanceDestroyed(m.moduleID, inst.Version()))
}

// CleanupIdle destroys dying instances with no in-flight calls. Safe to
// call repeatedly from a ticker; TryLock means an overlapping sweep is
// skipped rather than queued, so a slow cleanup cannot pile up concurrent
// sweeps against the same pool.
func (m *Manager) CleanupIdle(ctx context.Context) int {
	if !m.cleanupMu.TryLock() {
		return 0
	}
	defer m.cleanupMu.Unlock()

	return m.pool.CleanupIdle(ctx)
}

// RunCleanupLoop runs CleanupIdle on interval until ctx is cancelled. Meant
// to be launched with `go m.RunCleanupLoop(ctx, interval)`.
func (m *Manager) RunCleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupIdle(ctx)
		}
	}
}

// Shutdown tears down every instance in the pool unconditionally,
// publishing RuntimeShuttingDown before and RuntimeShutdown after, and
// flips the shutdown flag so any subsequent Deploy/DeployCanary is
// rejected rather than silently reactivating a terminal runtime. Idempotent:
// a second call is a no-op.
func (m *Manager) Shutdown(ctx context.Context) {
	if !m.shutdown.CompareAndSwap(false, true) {
		return
	}

	m.writerMu.Lock()
	m.bus.Publish(api.NewRuntimeShuttingDown(m.moduleID))
	m.pool.Shutdown(ctx)
	m.writerMu.Unlock()

	m.bus.Publish(api.NewRuntimeShutdown(m.moduleID))
	logging.Info("Lifecycle", "module %s: runtime shut down", m.moduleID)
}
