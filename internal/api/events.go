package api

// RuntimeEvent is the tagged union of lifecycle notifications published on
// a module's event bus. Concrete types below are the only implementations;
// consumers type-switch on them.
type RuntimeEvent interface {
	isRuntimeEvent()
	ModuleId() ModuleId
}

type baseEvent struct {
	moduleID ModuleId
}

func (baseEvent) isRuntimeEvent()         {}
func (b baseEvent) ModuleId() ModuleId    { return b.moduleID }

// InstanceUpgrading fires when a deploy of a new instance begins, before
// its container is started and before it is added to the module's pool.
type InstanceUpgrading struct {
	baseEvent
	Version Version
}

// InstanceReady fires once an instance's container has started and it is
// eligible to receive traffic.
type InstanceReady struct {
	baseEvent
	Version Version
}

// InstanceDying fires when an instance is moved out of the active set
// (superseded by a newer version, or targeted for shutdown) but may still
// be draining in-flight calls.
type InstanceDying struct {
	baseEvent
	Version Version
}

// InstanceDestroyed fires once an instance's container has stopped and its
// resources are released.
type InstanceDestroyed struct {
	baseEvent
	Version Version
}

// RuntimeShuttingDown fires once per module when ModuleRuntime.Shutdown is
// called, before any instance is torn down.
type RuntimeShuttingDown struct {
	baseEvent
}

// RuntimeShutdown fires once every instance in the module has been
// destroyed and the runtime is fully stopped.
type RuntimeShutdown struct {
	baseEvent
}

// InvocationStarted fires just before the bound method runs: on the async
// path after bulkhead admission, on the synchronous path with no bulkhead.
type InvocationStarted struct {
	baseEvent
	FQSID FQSID
}

// InvocationCompleted fires after a bound method returns successfully.
type InvocationCompleted struct {
	baseEvent
	FQSID      FQSID
	DurationMs int64
}

// InvocationRejected fires when bulkhead admission times out or the bound
// method returns an error. Permission denials and execution timeouts do
// not publish it.
type InvocationRejected struct {
	baseEvent
	FQSID  FQSID
	Reason string
}

func NewInstanceUpgrading(moduleID ModuleId, version Version) InstanceUpgrading {
	return InstanceUpgrading{baseEvent{moduleID}, version}
}

func NewInstanceReady(moduleID ModuleId, version Version) InstanceReady {
	return InstanceReady{baseEvent{moduleID}, version}
}

func NewInstanceDying(moduleID ModuleId, version Version) InstanceDying {
	return InstanceDying{baseEvent{moduleID}, version}
}

func NewInstanceDestroyed(moduleID ModuleId, version Version) InstanceDestroyed {
	return InstanceDestroyed{baseEvent{moduleID}, version}
}

func NewRuntimeShuttingDown(moduleID ModuleId) RuntimeShuttingDown {
	return RuntimeShuttingDown{baseEvent{moduleID}}
}

func NewRuntimeShutdown(moduleID ModuleId) RuntimeShutdown {
	return RuntimeShutdown{baseEvent{moduleID}}
}

func NewInvocationStarted(moduleID ModuleId, fqsid FQSID) InvocationStarted {
	return InvocationStarted{baseEvent{moduleID}, fqsid}
}

func NewInvocationCompleted(moduleID ModuleId, fqsid FQSID, durationMs int64) InvocationCompleted {
	return InvocationCompleted{baseEvent{moduleID}, fqsid, durationMs}
}

func NewInvocationRejected(moduleID ModuleId, fqsid FQSID, reason string) InvocationRejected {
	return InvocationRejected{baseEvent{moduleID}, fqsid, reason}
}
