// Package api is the governance kernel's central vocabulary and Service
// Locator layer.
//
// It serves two purposes:
//
//  1. Shared data model — ModuleId, Version, FQSID, LabelSet,
//     ModuleDefinition, ModuleStatus, AccessKind, and the RuntimeEvent
//     tagged union used by every other package, so that
//     internal/instance, internal/registry, internal/executor,
//     internal/lifecycle, internal/runtime, and internal/manager share one
//     definition instead of each rolling their own.
//
//  2. External collaborator contracts — ModuleLoader, ContainerFactory,
//     ModuleContainer, PermissionService, TrafficRouter,
//     TransactionVerifier, ThreadLocalPropagator, SecurityVerifier, and
//     PluginContext are declared here as interfaces and wired through a
//     handler registry (Register*/Get* functions guarded by a
//     sync.RWMutex). This is the same decoupling pattern used throughout
//     this codebase to keep the kernel's core independent of any one
//     concrete policy implementation: a runtime asks api.GetPermissionService()
//     instead of importing a specific permission package directly.
//
// Reference implementations of the pluggable interfaces live in sibling
// packages (internal/router, internal/permission, internal/txverify,
// internal/propagation, internal/inprocloader); constructing one does not
// register it, the embedding code passes it to the matching Register*
// function.
package api
