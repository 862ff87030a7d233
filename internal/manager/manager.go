package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"govkernel/internal/api"
	"govkernel/internal/bus"
	"govkernel/internal/executor"
	"govkernel/internal/instance"
	"govkernel/internal/lifecycle"
	"govkernel/internal/registry"
	"govkernel/internal/runtime"
	"govkernel/pkg/logging"
)

// Config bounds the executor resources given to every module's runtime.
type Config struct {
	BulkheadCapacity  int
	WorkerCount       int
	AcquireTimeout    time.Duration
	ExecTimeout       time.Duration
	ForceCleanupDelay time.Duration
	MaxDyingInstances int
}

// BeanCall is supplied by a caller of InvokeService to turn the resolved
// bean into a result; the manager handles routing, admission, and
// dispatch, but the actual method call against the bean is
// application-specific and is not the manager's concern.
type BeanCall func(ctx context.Context, bean any) (any, error)

// Manager composes and owns every installed module's runtime, plus the
// global FQSID index (protocolIndex) used to discover a cross-module
// service proxy by interface type. It does not own any module's
// ServiceRegistry — that belongs to the module's own runtime.Runtime.
type Manager struct {
	cfg Config

	mu       sync.RWMutex
	runtimes map[api.ModuleId]*runtime.Runtime
	buses    map[api.ModuleId]*bus.Bus
	sources  map[api.ModuleId]api.ModuleSource
	locks    map[api.ModuleId]*sync.Mutex

	protocolMu    sync.RWMutex
	protocolIndex map[string][]api.FQSID
}

// New constructs an empty Manager.
func New(cfg Config) *Manager {
	return &Manager{
		cfg:           cfg,
		runtimes:      make(map[api.ModuleId]*runtime.Runtime),
		buses:         make(map[api.ModuleId]*bus.Bus),
		sources:       make(map[api.ModuleId]api.ModuleSource),
		locks:         make(map[api.ModuleId]*sync.Mutex),
		protocolIndex: make(map[string][]api.FQSID),
	}
}

func (m *Manager) lockFor(moduleID api.ModuleId) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[moduleID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[moduleID] = l
	}
	return l
}

func (m *Manager) runtimeFor(moduleID api.ModuleId) (*runtime.Runtime, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rt, ok := m.runtimes[moduleID]
	return rt, ok
}

// Install resolves def's code via the registered ModuleLoader and
// ContainerFactory and deploys the resulting instance. If def.ID has no
// runtime yet, this is a first install; if one already exists, this is the
// blue/green upgrade path — the new instance becomes the default and the
// previous one is retired, with no gap in availability.
func (m *Manager) Install(ctx context.Context, def *api.ModuleDefinition, source api.ModuleSource) error {
	return m.install(ctx, def, source, true)
}

// InstallDev behaves like Install but skips SecurityVerifier checks, for
// local development loops where the source is trusted by construction.
func (m *Manager) InstallDev(ctx context.Context, def *api.ModuleDefinition, source api.ModuleSource) error {
	return m.install(ctx, def, source, false)
}

func (m *Manager) install(ctx context.Context, def *api.ModuleDefinition, source api.ModuleSource, verify bool) error {
	if err := api.ValidateModuleId(def.ID); err != nil {
		return err
	}
	if err := api.ValidateVersion(def.Version); err != nil {
		return err
	}

	lock := m.lockFor(def.ID)
	lock.Lock()
	defer lock.Unlock()

	if verify {
		for _, v := range api.SecurityVerifiers() {
			if err := v.Verify(def.ID, source); err != nil {
				return api.ErrSecurityViolation(def.ID, err)
			}
		}
	}

	existingRt, upgrading := m.runtimeFor(def.ID)

	inst, err := m.buildInstance(def, source, nil)
	if err != nil {
		return err
	}

	if upgrading {
		// Re-installing an id that already has a runtime is the documented
		// upgrade path: swap the new instance in as the default via the
		// existing runtime's own blue/green Deploy, reusing its
		// pool/lifecycle/executor/bus rather than rebuilding them. A failed
		// deploy here must leave the previous default instance untouched.
		if err := existingRt.Deploy(ctx, inst); err != nil {
			inst.Destroy(ctx)
			return err
		}
		existingRt.SetDefinition(def)

		m.mu.Lock()
		m.sources[def.ID] = source
		m.mu.Unlock()

		logging.Info("Manager", "module %s upgraded to version %s", def.ID, def.Version)
		return nil
	}

	moduleBus := bus.New(def.ID)
	pool := instance.NewPool(def.ID, m.cfg.MaxDyingInstances)
	lifecycleMgr := lifecycle.NewManager(def.ID, pool, moduleBus, m.cfg.ForceCleanupDelay)
	exec := executor.New(def.ID, moduleBus, m.cfg.BulkheadCapacity, m.cfg.WorkerCount, m.cfg.AcquireTimeout, m.cfg.ExecTimeout)
	reg := registry.New(def.ID, moduleBus)
	rt := runtime.New(def.ID, def, pool, lifecycleMgr, exec, moduleBus, reg)

	if err := rt.Deploy(ctx, inst); err != nil {
		inst.Destroy(ctx)
		return err
	}

	m.mu.Lock()
	m.runtimes[def.ID] = rt
	m.buses[def.ID] = moduleBus
	m.sources[def.ID] = source
	m.mu.Unlock()

	logging.Info("Manager", "module %s installed at version %s", def.ID, def.Version)
	return nil
}

func (m *Manager) buildContainer(def *api.ModuleDefinition, source api.ModuleSource) (api.ModuleContainer, error) {
	loader := api.GetModuleLoader()
	if loader == nil {
		return nil, api.NewError(api.KindLifecycleError, "no ModuleLoader registered", nil)
	}
	factory := api.GetContainerFactory()
	if factory == nil {
		return nil, api.NewError(api.KindLifecycleError, "no ContainerFactory registered", nil)
	}

	handle, err := loader.Create(def.ID, source, nil)
	if err != nil {
		return nil, api.ErrLifecycle("module loader failed to resolve source", err)
	}

	container, err := factory.Create(def.ID, source, handle)
	if err != nil {
		handle.Close()
		return nil, api.ErrLifecycle("container factory failed", err)
	}
	return container, nil
}

func (m *Manager) buildInstance(def *api.ModuleDefinition, source api.ModuleSource, labels api.LabelSet) (*instance.Instance, error) {
	container, err := m.buildContainer(def, source)
	if err != nil {
		return nil, err
	}
	return instance.New(def.ID, def.Version, def, labels, container), nil
}

// DeployCanary builds a new instance at version and adds it to moduleID's
// pool alongside the existing default, without superseding it.
func (m *Manager) DeployCanary(ctx context.Context, moduleID api.ModuleId, version api.Version, labels api.LabelSet) error {
	lock := m.lockFor(moduleID)
	lock.Lock()
	defer lock.Unlock()

	rt, ok := m.runtimeFor(moduleID)
	if !ok {
		return api.ErrServiceUnavailable(moduleID)
	}

	m.mu.RLock()
	source := m.sources[moduleID]
	m.mu.RUnlock()

	def := rt.Definition().Clone()
	def.Version = version

	inst, err := m.buildInstance(def, source, labels)
	if err != nil {
		return err
	}

	return rt.DeployCanary(ctx, inst)
}

// Reload looks up moduleID's originally installed source and re-installs
// it under a fabricated reload version (e.g. "reload-<epochMs>"), against
// a copy of the currently active ModuleDefinition so outside holders of
// the original definition are not mutated. It is a no-op (logged, not an
// error) if moduleID was never installed — there is no source to rebuild
// from. Unlike Install, this never changes permissions/audits/properties;
// it exists to re-run the same module code, not to roll out new config.
func (m *Manager) Reload(ctx context.Context, moduleID api.ModuleId) error {
	m.mu.RLock()
	source, hasSource := m.sources[moduleID]
	m.mu.RUnlock()
	if !hasSource {
		logging.Warn("Manager", "reload requested for %s but no source is on record, skipping", moduleID)
		return nil
	}

	rt, ok := m.runtimeFor(moduleID)
	if !ok {
		logging.Warn("Manager", "reload requested for %s but it has no runtime, skipping", moduleID)
		return nil
	}

	newDef := rt.Definition().Clone()
	newDef.Version = api.Version(fmt.Sprintf("reload-%d", time.Now().UnixMilli()))

	if err := m.install(ctx, newDef, source, false); err != nil {
		return err
	}
	logging.Info("Manager", "module %s reloaded at version %s", moduleID, newDef.Version)
	return nil
}

// Uninstall shuts down moduleID's runtime — which, via RuntimeShuttingDown,
// clears that runtime's own registry — and notifies the PermissionService
// so it can drop any per-module state.
func (m *Manager) Uninstall(ctx context.Context, moduleID api.ModuleId) error {
	lock := m.lockFor(moduleID)
	lock.Lock()
	defer lock.Unlock()

	rt, ok := m.runtimeFor(moduleID)
	if !ok {
		return api.ErrServiceUnavailable(moduleID)
	}

	rt.Shutdown(ctx)
	if ps := api.GetPermissionService(); ps != nil {
		ps.RemovePlugin(moduleID)
	}

	m.mu.Lock()
	delete(m.runtimes, moduleID)
	delete(m.buses, moduleID)
	delete(m.sources, moduleID)
	delete(m.locks, moduleID)
	m.mu.Unlock()

	m.protocolMu.Lock()
	for iface, fqsids := range m.protocolIndex {
		kept := fqsids[:0]
		for _, f := range fqsids {
			if f.ModuleOf() != moduleID {
				kept = append(kept, f)
			}
		}
		m.protocolIndex[iface] = kept
	}
	m.protocolMu.Unlock()

	logging.Info("Manager", "module %s uninstalled", moduleID)
	return nil
}

// RegisterProtocolService binds fqsid (owned by moduleID) to that module's
// own runtime-owned registry — eagerly resolving a bean of interfaceType
// from moduleID's active instance so a service that can never be reached
// fails here with InvocationError rather than on first call — and indexes
// it under interfaceType for global discovery via GetGlobalServiceProxy.
// Reports whether fqsid was newly bound (false if it overwrote an
// existing binding).
func (m *Manager) RegisterProtocolService(fqsid api.FQSID, interfaceType string, moduleID api.ModuleId) (bool, error) {
	rt, ok := m.runtimeFor(moduleID)
	if !ok {
		return false, api.ErrServiceUnavailable(moduleID)
	}

	bean, _ := rt.GetBean(interfaceType)
	isNew, err := rt.Registry().Register(registry.Binding{FQSID: fqsid, InterfaceType: interfaceType, ModuleId: moduleID}, bean)
	if err != nil {
		return false, err
	}

	if isNew {
		m.protocolMu.Lock()
		m.protocolIndex[interfaceType] = append(m.protocolIndex[interfaceType], fqsid)
		m.protocolMu.Unlock()
	}
	return isNew, nil
}

// InvokeService routes fqsid through the governed invocation pipeline:
// permission check (if RequiredPermission is set, audited through the
// PermissionService when ShouldAudit is also set), instance
// selection, bulkhead admission, and dispatch of call against the
// resolved bean. fqsid's module portion identifies which runtime (and
// therefore which registry) owns the binding.
func (m *Manager) InvokeService(ctx context.Context, fqsid api.FQSID, invCtx api.InvocationContext, call BeanCall) (any, error) {
	rt, ok := m.runtimeFor(fqsid.ModuleOf())
	if !ok {
		return nil, api.ErrServiceUnavailable(fqsid.ModuleOf())
	}

	binding, err := rt.Registry().GetRequired(fqsid)
	if err != nil {
		return nil, err
	}

	if invCtx.RequiredPermission != "" {
		ps := api.GetPermissionService()
		allowed := ps == nil || ps.IsAllowed(invCtx.CallerModuleId, invCtx.RequiredPermission, invCtx.AccessKind)
		if invCtx.ShouldAudit && ps != nil {
			ps.Audit(invCtx.CallerModuleId, invCtx.RequiredPermission, invCtx.Operation, allowed)
		}
		if !allowed {
			return nil, api.ErrPermissionDenied(invCtx.CallerModuleId, invCtx.RequiredPermission)
		}
	}

	return rt.Invoke(ctx, fqsid, invCtx.Operation, binding.InterfaceType, invCtx, call)
}

// GetService resolves a bean of the given interface type from moduleID's
// currently active instance, for a plugin that wants to call another
// module directly rather than through InvokeService's FQSID routing.
func (m *Manager) GetService(moduleID api.ModuleId, interfaceType string) (any, bool) {
	rt, ok := m.runtimeFor(moduleID)
	if !ok || !rt.IsAvailable() {
		return nil, false
	}
	return rt.GetBean(interfaceType)
}

// PublishModuleEvent publishes event on moduleID's lifecycle event bus, for
// application-level events a module wants its own subscribers to observe
// alongside the kernel's built-in lifecycle/invocation events. It is a
// no-op if moduleID is not currently installed.
func (m *Manager) PublishModuleEvent(moduleID api.ModuleId, event api.RuntimeEvent) {
	m.mu.RLock()
	b, ok := m.buses[moduleID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	b.Publish(event)
}

// GetGlobalServiceProxy returns a memoized proxy for the first module that
// registered an implementation of interfaceType, building it with factory
// on first access. The proxy is cached in that module's own registry, so
// it is invalidated exactly when that module's instances change.
func (m *Manager) GetGlobalServiceProxy(interfaceType string, factory registry.ProxyFactory) (any, bool) {
	m.protocolMu.RLock()
	fqsids := m.protocolIndex[interfaceType]
	m.protocolMu.RUnlock()
	if len(fqsids) == 0 {
		return nil, false
	}

	rt, ok := m.runtimeFor(fqsids[0].ModuleOf())
	if !ok {
		return nil, false
	}

	proxy, err := rt.Registry().GetOrCreateProxy(fqsids[0], factory)
	if err != nil {
		logging.Error("Manager", err, "failed to build global proxy for %s", interfaceType)
		return nil, false
	}
	return proxy, true
}

// ModuleIds returns every currently installed module id.
func (m *Manager) ModuleIds() []api.ModuleId {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]api.ModuleId, 0, len(m.runtimes))
	for id := range m.runtimes {
		ids = append(ids, id)
	}
	return ids
}

// Runtime exposes the runtime.Runtime for moduleID, for read-only
// inspection by the CLI's stats command.
func (m *Manager) Runtime(moduleID api.ModuleId) (*runtime.Runtime, bool) {
	return m.runtimeFor(moduleID)
}

// Shutdown tears down every installed module's runtime.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.RLock()
	runtimes := make([]*runtime.Runtime, 0, len(m.runtimes))
	for _, rt := range m.runtimes {
		runtimes = append(runtimes, rt)
	}
	m.mu.RUnlock()

	for _, rt := range runtimes {
		rt.Shutdown(ctx)
	}
}
