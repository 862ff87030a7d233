package api

import "context"

// ModuleContainer is the embedded bean-wiring container for one instance.
// Its implementation (the ModuleContainer mechanism itself) is out of
// scope for the kernel; the kernel only needs these five operations.
type ModuleContainer interface {
	// Start performs whatever blocking initialization the container needs
	// (wiring beans, opening resources). On failure it returns an error;
	// no partial instance is exposed.
	Start(ctx context.Context) error

	// Stop tears the container down. Implementations must not let a panic
	// or error here propagate to the caller — swallow and log internally.
	// The kernel still calls it at most once (see Instance.Destroy).
	Stop()

	// IsActive reports whether the container currently considers itself
	// running and able to serve calls.
	IsActive() bool

	// GetBeanByType resolves a bean by its Go type name; returns false if
	// absent.
	GetBeanByType(typeName string) (any, bool)

	// GetBeanByName resolves a bean by its registered name; returns false
	// if absent.
	GetBeanByName(name string) (any, bool)
}

// ClassResolutionHandle is the opaque, closeable handle returned by a
// ModuleLoader. The kernel never inspects it — only closes it.
type ClassResolutionHandle interface {
	Close() error
}

// ModuleSource is an opaque description of where a module's code/config
// comes from (a directory, an archive, an in-process registration — the
// kernel does not care). It exists purely so ModuleManager can remember it
// for reload().
type ModuleSource any

// ModuleLoader resolves a module's code. Deliberately out of scope for
// this kernel (see spec §6) — only the contract is defined here.
type ModuleLoader interface {
	Create(moduleID ModuleId, source ModuleSource, parent ClassResolutionHandle) (ClassResolutionHandle, error)
}

// ContainerFactory builds the ModuleContainer for one instance once its
// code has been resolved.
type ContainerFactory interface {
	Create(moduleID ModuleId, source ModuleSource, handle ClassResolutionHandle) (ModuleContainer, error)
}

// PermissionService decides whether a caller may exercise a permission,
// and receives audit notifications and uninstall cleanup hooks.
type PermissionService interface {
	IsAllowed(caller ModuleId, permission string, kind AccessKind) bool
	RemovePlugin(moduleID ModuleId)
	Audit(moduleID ModuleId, capability, operation string, allowed bool)
}

// TrafficRouter picks which active instance should serve a call, or
// returns nil to fall back to the pool's default instance.
type TrafficRouter interface {
	Route(active []InstanceView, ctx InvocationContext) InstanceView
}

// InstanceView is the read-only projection of an Instance a TrafficRouter
// is allowed to see: enough to score and pick, nothing that lets it mutate
// lifecycle state.
type InstanceView interface {
	Version() Version
	Labels() LabelSet
	IsReady() bool
	IsDying() bool
	ContainerActive() bool
}

// TransactionVerifier decides whether a binding must run on the caller's
// own thread (synchronous, unbulkheaded) rather than hop to a worker.
type TransactionVerifier interface {
	IsTransactional(methodName string, beanTypeName string) bool
}

// ThreadLocalPropagator captures a piece of goroutine-scoped state before
// a call crosses into a worker, replays it there, and restores the
// worker's prior state afterward. Go has no true thread-locals; the
// "opaque" values are passed explicitly through the snapshot rather than
// stashed in a global — see internal/propagation for the idiomatic
// reading of this contract.
type ThreadLocalPropagator interface {
	Capture() any
	Replay(snapshot any) (backup any)
	Restore(backup any)
}

// SecurityVerifier may reject a module at install time by returning an
// error; it never mutates module state itself.
type SecurityVerifier interface {
	Verify(moduleID ModuleId, source ModuleSource) error
}

// PluginContext is what the kernel exposes to a running instance so it can
// call other modules, read its own properties, and publish events without
// importing the kernel's internal packages directly.
type PluginContext interface {
	PluginId() ModuleId
	Property(key string) (string, bool)
	GetService(ctx context.Context, interfaceType string) (any, bool)
	Invoke(ctx context.Context, fqsid FQSID, args []interface{}) (any, bool)
	PublishEvent(event any)
	PermissionService() PermissionService
}
