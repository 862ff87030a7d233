package runtime

import (
	"context"
	"sync"
	"sync/atomic"

	"govkernel/internal/api"
	"govkernel/internal/bus"
	"govkernel/internal/executor"
	"govkernel/internal/instance"
	"govkernel/internal/lifecycle"
	"govkernel/internal/registry"
	"govkernel/pkg/logging"
)

// instanceView adapts *instance.Instance to api.InstanceView so the pool's
// internal type never leaks into a TrafficRouter implementation.
type instanceView struct{ inst *instance.Instance }

func (v instanceView) Version() api.Version      { return v.inst.Version() }
func (v instanceView) Labels() api.LabelSet      { return v.inst.Labels() }
func (v instanceView) IsReady() bool             { return v.inst.IsReady() }
func (v instanceView) IsDying() bool             { return v.inst.IsDying() }
func (v instanceView) ContainerActive() bool     { return v.inst.ContainerActive() }

// Runtime is the live, routable representation of one installed module.
type Runtime struct {
	moduleID api.ModuleId

	definitionMu sync.RWMutex
	definition   *api.ModuleDefinition

	status atomic.Int32 // api.ModuleStatus

	pool      *instance.Pool
	lifecycle *lifecycle.Manager
	executor  *executor.Executor
	bus       *bus.Bus
	registry  *registry.Registry

	trafficMu sync.Mutex
	traffic   map[api.Version]int64
}

// New composes a Runtime from its already-constructed parts. The caller
// (internal/manager) owns building pool/lifecycle/executor/bus/registry
// together so they share the same moduleID — each installed module gets
// its own ServiceRegistry, never one shared across modules.
func New(moduleID api.ModuleId, definition *api.ModuleDefinition, pool *instance.Pool, lifecycleMgr *lifecycle.Manager, exec *executor.Executor, moduleBus *bus.Bus, reg *registry.Registry) *Runtime {
	r := &Runtime{
		moduleID:   moduleID,
		definition: definition,
		pool:       pool,
		lifecycle:  lifecycleMgr,
		executor:   exec,
		bus:        moduleBus,
		registry:   reg,
		traffic:    make(map[api.Version]int64),
	}
	r.status.Store(int32(api.StatusLoaded))
	return r
}

func (r *Runtime) ModuleId() api.ModuleId { return r.moduleID }

// Registry returns the module's own service registry, the only one its
// bindings ever live in.
func (r *Runtime) Registry() *registry.Registry { return r.registry }

// Definition returns the currently active module definition.
func (r *Runtime) Definition() *api.ModuleDefinition {
	r.definitionMu.RLock()
	defer r.definitionMu.RUnlock()
	return r.definition
}

// SetDefinition swaps in a new definition. The manager's upgrade path
// (re-install, and Reload through it) calls it with the newly deployed
// version's definition.
func (r *Runtime) SetDefinition(def *api.ModuleDefinition) {
	r.definitionMu.Lock()
	r.definition = def
	r.definitionMu.Unlock()
}

func (r *Runtime) Status() api.ModuleStatus { return api.ModuleStatus(r.status.Load()) }

// Activate moves the module into the serving state. Called once its first
// instance is ready.
func (r *Runtime) Activate() {
	r.status.Store(int32(api.StatusActive))
	logging.Info("Runtime", "module %s activated", r.moduleID)
}

// Deactivate takes the module out of the serving rotation without
// destroying any instance — new calls are refused, in-flight ones drain
// normally.
func (r *Runtime) Deactivate() {
	r.status.Store(int32(api.StatusLoaded))
	logging.Info("Runtime", "module %s deactivated", r.moduleID)
}

// Deploy adds inst as the new default instance via the lifecycle manager,
// activating the module on first deploy.
func (r *Runtime) Deploy(ctx context.Context, inst *instance.Instance) error {
	first := r.pool.GetDefault() == nil
	if err := r.lifecycle.Deploy(ctx, inst); err != nil {
		return err
	}
	if first {
		r.Activate()
	}
	return nil
}

// DeployCanary adds inst alongside the current default without superseding
// it; only a TrafficRouter that explicitly matches its labels will route
// calls to it.
func (r *Runtime) DeployCanary(ctx context.Context, inst *instance.Instance) error {
	return r.lifecycle.DeployCanary(ctx, inst)
}

// IsAvailable reports whether the module is active and has at least one
// instance that can serve a call.
func (r *Runtime) IsAvailable() bool {
	return r.Status() == api.StatusActive && r.pool.HasAvailable()
}

// Versions returns every version currently present in the pool, ready or
// dying.
func (r *Runtime) Versions() []api.Version {
	members := r.pool.Members()
	out := make([]api.Version, len(members))
	for i, inst := range members {
		out[i] = inst.Version()
	}
	return out
}

// CanaryVersion returns a ready, non-default version if one exists
// alongside the default — i.e. a version deployed to receive only
// explicitly label-routed traffic rather than the general default.
func (r *Runtime) CanaryVersion() (api.Version, bool) {
	def := r.pool.GetDefault()
	for _, inst := range r.pool.ActiveInstances() {
		if def == nil || inst.Version() != def.Version() {
			return inst.Version(), true
		}
	}
	return "", false
}

// routeToInstance picks the ready instance that should serve invCtx and
// admits one call on it. The caller must call Exit on the returned
// instance exactly once.
func (r *Runtime) routeToInstance(invCtx api.InvocationContext) (*instance.Instance, error) {
	if r.Status() != api.StatusActive {
		return nil, api.ErrServiceUnavailable(r.moduleID)
	}

	active := r.pool.ActiveInstances()
	if len(active) == 0 {
		return nil, api.ErrServiceUnavailable(r.moduleID)
	}

	chosen := r.selectInstance(active, invCtx)
	if chosen == nil {
		return nil, api.ErrServiceUnavailable(r.moduleID)
	}
	if !chosen.TryEnter() {
		return nil, api.ErrServiceUnavailable(r.moduleID)
	}

	r.recordTraffic(chosen.Version())
	return chosen, nil
}

func (r *Runtime) selectInstance(active []*instance.Instance, invCtx api.InvocationContext) *instance.Instance {
	if router := api.GetTrafficRouter(); router != nil {
		views := make([]api.InstanceView, len(active))
		for i, inst := range active {
			views[i] = instanceView{inst}
		}
		if picked := router.Route(views, invCtx); picked != nil {
			for _, inst := range active {
				if inst.Version() == picked.Version() {
					return inst
				}
			}
		}
	}

	if def := r.pool.GetDefault(); def != nil {
		for _, inst := range active {
			if inst == def {
				return inst
			}
		}
	}
	return active[0]
}

func (r *Runtime) recordTraffic(version api.Version) {
	r.trafficMu.Lock()
	r.traffic[version]++
	r.trafficMu.Unlock()
}

// TrafficCounts returns a snapshot of how many calls each version has
// served since the runtime was created.
func (r *Runtime) TrafficCounts() map[api.Version]int64 {
	r.trafficMu.Lock()
	defer r.trafficMu.Unlock()
	out := make(map[api.Version]int64, len(r.traffic))
	for v, n := range r.traffic {
		out[v] = n
	}
	return out
}

// InstanceSummary is the read-only projection of an instance exposed for
// inspection tooling (the CLI's "list instances" command).
type InstanceSummary struct {
	Version       api.Version
	Labels        api.LabelSet
	Ready         bool
	Dying         bool
	Destroyed     bool
	ActiveCalls   int64
	ContainerUp   bool
}

// Instances returns a summary of every instance currently tracked by the
// module's pool, including ones mid-retirement.
func (r *Runtime) Instances() []InstanceSummary {
	members := r.pool.Members()
	out := make([]InstanceSummary, 0, len(members))
	for _, inst := range members {
		out = append(out, InstanceSummary{
			Version:     inst.Version(),
			Labels:      inst.Labels(),
			Ready:       inst.IsReady(),
			Dying:       inst.IsDying(),
			Destroyed:   inst.IsDestroyed(),
			ActiveCalls: inst.ActiveRequestCount(),
			ContainerUp: inst.ContainerActive(),
		})
	}
	return out
}

// Invoke routes invCtx to a ready instance, resolves beanTypeName from its
// container, and dispatches call against that bean through the executor.
// The chosen instance is admitted for the duration of the call and
// released once it returns, regardless of sync/async dispatch.
func (r *Runtime) Invoke(ctx context.Context, fqsid api.FQSID, methodName, beanTypeName string, invCtx api.InvocationContext, call func(ctx context.Context, bean any) (any, error)) (any, error) {
	inst, err := r.routeToInstance(invCtx)
	if err != nil {
		return nil, err
	}
	defer inst.Exit()

	bean, ok := inst.Container().GetBeanByType(beanTypeName)
	if !ok {
		return nil, api.ErrServiceNotFound(fqsid)
	}

	req := executor.Request{
		FQSID:        fqsid,
		MethodName:   methodName,
		BeanTypeName: beanTypeName,
		Context:      invCtx,
		Fn: func(execCtx context.Context) (any, error) {
			return call(execCtx, bean)
		},
	}
	return r.executor.Execute(ctx, req)
}

// GetBean resolves interfaceType from the module's current default
// instance (or any active instance if no default is set), for a caller
// that wants the bean directly rather than a routed call.
func (r *Runtime) GetBean(interfaceType string) (any, bool) {
	active := r.pool.ActiveInstances()
	if len(active) == 0 {
		return nil, false
	}
	inst := r.pool.GetDefault()
	if inst == nil {
		inst = active[0]
	}
	return inst.Container().GetBeanByType(interfaceType)
}

// Shutdown stops the module's lifecycle manager (destroying every
// instance) and marks the runtime shut down.
func (r *Runtime) Shutdown(ctx context.Context) {
	r.lifecycle.Shutdown(ctx)
	r.status.Store(int32(api.StatusShutdown))
}
