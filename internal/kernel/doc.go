// Package kernel is the Governance Kernel: the outermost entry point a
// caller (another module, or the process's own bootstrap code) goes
// through to invoke a service. It wraps manager.Manager with the
// cross-cutting concerns that apply to every invocation regardless of
// which module owns it — a trace span, Prometheus metrics, and an
// asynchronous audit record — and hands out the PluginContext each
// running module uses to call back into the kernel.
package kernel
