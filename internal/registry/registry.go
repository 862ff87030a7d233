package registry

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"govkernel/internal/api"
	"govkernel/internal/bus"
	"govkernel/pkg/logging"
)

// Binding records which module serves a given FQSID under which interface
// type.
type Binding struct {
	FQSID         api.FQSID
	InterfaceType string
	ModuleId      api.ModuleId
}

// ProxyFactory builds the callable stub for a FQSID the first time it is
// requested. Expensive factories (wrapping a remote-feeling call path,
// resolving reflection metadata) only run once per FQSID even under
// concurrent first callers, courtesy of singleflight.
type ProxyFactory func(fqsid api.FQSID) (any, error)

// Registry is one module's FQSID -> Binding directory plus its proxy
// cache. Every ModuleRuntime owns exactly one Registry; it is never shared
// across modules, so a binding's ModuleId is always the Registry's own
// module (retained on Binding mainly so callers inspecting a Get result
// don't need a second lookup to know whose service they found). The zero
// value is not usable; construct with New.
type Registry struct {
	moduleID api.ModuleId

	mu       sync.RWMutex
	bindings map[api.FQSID]Binding

	proxyMu sync.Mutex
	proxies map[api.FQSID]any
	group   singleflight.Group
}

// New constructs an empty Registry for moduleID and subscribes it to
// moduleBus so its proxy cache (and, on shutdown, its bindings) track that
// module's own instance lifecycle without any caller having to wire
// invalidation by hand.
func New(moduleID api.ModuleId, moduleBus *bus.Bus) *Registry {
	r := &Registry{
		moduleID: moduleID,
		bindings: make(map[api.FQSID]Binding),
		proxies:  make(map[api.FQSID]any),
	}
	moduleBus.Subscribe(func(event api.RuntimeEvent) {
		switch event.(type) {
		case api.InstanceUpgrading, api.InstanceReady, api.InstanceDying, api.InstanceDestroyed:
			r.ClearProxies()
		case api.RuntimeShuttingDown:
			r.Clear()
		}
	})
	return r
}

// Register adds one binding, eagerly resolving bean as the concrete
// service implementation behind interfaceType so a missing or
// inaccessible bean fails at registration time rather than on first
// invocation. Re-registering the same FQSID overwrites the prior binding,
// invalidates any cached proxy for it, and reports isNew=false.
func (r *Registry) Register(b Binding, bean any) (isNew bool, err error) {
	if b.FQSID == "" {
		return false, api.ErrInvalidArgument("fqsid must not be empty")
	}
	if b.InterfaceType == "" {
		return false, api.ErrInvalidArgument("interfaceType must not be empty")
	}
	if bean == nil {
		return false, api.ErrInvocation(fmt.Errorf("interface %s is not accessible on module %s's active instance", b.InterfaceType, b.ModuleId))
	}

	r.mu.Lock()
	_, existed := r.bindings[b.FQSID]
	r.bindings[b.FQSID] = b
	r.mu.Unlock()

	r.invalidateProxy(b.FQSID)
	if existed {
		logging.Info("Registry", "module %s: overwriting existing binding for %s", r.moduleID, b.FQSID)
	} else {
		logging.Debug("Registry", "module %s: registered %s (%s)", r.moduleID, b.FQSID, b.InterfaceType)
	}
	return !existed, nil
}

// RegisterBatch registers every binding against its paired bean, stopping
// at the first error. On error, bindings already registered in this call
// remain registered. Returns how many of bindings were newly registered
// (as opposed to overwriting an existing FQSID).
func (r *Registry) RegisterBatch(bindings []Binding, beans []any) (newCount int, err error) {
	for i, b := range bindings {
		isNew, err := r.Register(b, beans[i])
		if err != nil {
			return newCount, err
		}
		if isNew {
			newCount++
		}
	}
	return newCount, nil
}

// Unregister removes a binding and its cached proxy, if any. Reports
// whether a binding was actually present to remove.
func (r *Registry) Unregister(fqsid api.FQSID) bool {
	r.mu.Lock()
	_, existed := r.bindings[fqsid]
	delete(r.bindings, fqsid)
	r.mu.Unlock()
	r.invalidateProxy(fqsid)
	return existed
}

// Get returns the binding for fqsid, if any.
func (r *Registry) Get(fqsid api.FQSID) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[fqsid]
	return b, ok
}

// GetRequired returns the binding for fqsid or a ServiceNotFound error.
func (r *Registry) GetRequired(fqsid api.FQSID) (Binding, error) {
	b, ok := r.Get(fqsid)
	if !ok {
		return Binding{}, api.ErrServiceNotFound(fqsid)
	}
	return b, nil
}

// Has reports whether fqsid is currently bound.
func (r *Registry) Has(fqsid api.FQSID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bindings[fqsid]
	return ok
}

// IDs returns every currently registered FQSID.
func (r *Registry) IDs() []api.FQSID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]api.FQSID, 0, len(r.bindings))
	for fqsid := range r.bindings {
		ids = append(ids, fqsid)
	}
	return ids
}

// Count returns the number of registered bindings.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// GetOrCreateProxy returns the cached proxy for fqsid, building it with
// factory on first access. Concurrent callers racing to build the same
// FQSID's proxy share one factory invocation via singleflight; only the
// winner's result is cached.
func (r *Registry) GetOrCreateProxy(fqsid api.FQSID, factory ProxyFactory) (any, error) {
	r.proxyMu.Lock()
	if p, ok := r.proxies[fqsid]; ok {
		r.proxyMu.Unlock()
		return p, nil
	}
	r.proxyMu.Unlock()

	result, err, _ := r.group.Do(string(fqsid), func() (interface{}, error) {
		r.proxyMu.Lock()
		if p, ok := r.proxies[fqsid]; ok {
			r.proxyMu.Unlock()
			return p, nil
		}
		r.proxyMu.Unlock()

		proxy, err := factory(fqsid)
		if err != nil {
			return nil, fmt.Errorf("building proxy for %s: %w", fqsid, err)
		}

		r.proxyMu.Lock()
		r.proxies[fqsid] = proxy
		r.proxyMu.Unlock()
		return proxy, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Registry) invalidateProxy(fqsid api.FQSID) {
	r.proxyMu.Lock()
	delete(r.proxies, fqsid)
	r.proxyMu.Unlock()
}

// ClearProxies drops every cached proxy without touching bindings. Used
// when routing policy changes in a way that could make stale proxies point
// at the wrong instance.
func (r *Registry) ClearProxies() {
	r.proxyMu.Lock()
	r.proxies = make(map[api.FQSID]any)
	r.proxyMu.Unlock()
}

// Clear removes every binding and cached proxy. Called automatically when
// the owning module's bus carries RuntimeShuttingDown.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.bindings = make(map[api.FQSID]Binding)
	r.mu.Unlock()
	r.ClearProxies()
}
