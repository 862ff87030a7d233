package api

import "sync"

// Handler registry. Implementations of the pluggable interfaces are
// registered here by the embedding code through Register*; the kernel's core
// packages look them up instead of importing a concrete implementation
// package, keeping internal/executor, internal/lifecycle, internal/runtime,
// and internal/manager independent of any one policy choice.
var (
	permissionService    PermissionService
	trafficRouter        TrafficRouter
	transactionVerifier  TransactionVerifier
	securityVerifiers    []SecurityVerifier
	propagators          []ThreadLocalPropagator
	moduleLoader         ModuleLoader
	containerFactory     ContainerFactory

	handlerMutex sync.RWMutex
)

// RegisterPermissionService installs the process-wide PermissionService.
func RegisterPermissionService(h PermissionService) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	permissionService = h
}

// GetPermissionService returns the registered PermissionService, or nil if
// none has been registered yet.
func GetPermissionService() PermissionService {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return permissionService
}

// RegisterTrafficRouter installs the process-wide TrafficRouter.
func RegisterTrafficRouter(h TrafficRouter) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	trafficRouter = h
}

// GetTrafficRouter returns the registered TrafficRouter, or nil.
func GetTrafficRouter() TrafficRouter {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return trafficRouter
}

// RegisterTransactionVerifier installs the process-wide TransactionVerifier.
func RegisterTransactionVerifier(h TransactionVerifier) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	transactionVerifier = h
}

// GetTransactionVerifier returns the registered TransactionVerifier, or nil.
func GetTransactionVerifier() TransactionVerifier {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return transactionVerifier
}

// RegisterModuleLoader installs the process-wide ModuleLoader.
func RegisterModuleLoader(h ModuleLoader) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	moduleLoader = h
}

// GetModuleLoader returns the registered ModuleLoader, or nil.
func GetModuleLoader() ModuleLoader {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return moduleLoader
}

// RegisterContainerFactory installs the process-wide ContainerFactory.
func RegisterContainerFactory(h ContainerFactory) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	containerFactory = h
}

// GetContainerFactory returns the registered ContainerFactory, or nil.
func GetContainerFactory() ContainerFactory {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return containerFactory
}

// RegisterSecurityVerifier appends a SecurityVerifier to the ordered list
// run at install time. Order of registration is the order of execution.
func RegisterSecurityVerifier(h SecurityVerifier) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	securityVerifiers = append(securityVerifiers, h)
}

// SecurityVerifiers returns a snapshot of the registered verifiers.
func SecurityVerifiers() []SecurityVerifier {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	out := make([]SecurityVerifier, len(securityVerifiers))
	copy(out, securityVerifiers)
	return out
}

// RegisterPropagator appends a ThreadLocalPropagator to the ordered list
// the executor captures/replays/restores on every async invocation.
func RegisterPropagator(p ThreadLocalPropagator) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	propagators = append(propagators, p)
}

// Propagators returns a snapshot of the registered propagators.
func Propagators() []ThreadLocalPropagator {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	out := make([]ThreadLocalPropagator, len(propagators))
	copy(out, propagators)
	return out
}

// ResetForTesting clears all registered handlers. Test-only: production
// code never calls this.
func ResetForTesting() {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	permissionService = nil
	trafficRouter = nil
	transactionVerifier = nil
	securityVerifiers = nil
	propagators = nil
	moduleLoader = nil
	containerFactory = nil
}
