package kernel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"govkernel/internal/api"
	"govkernel/internal/manager"
	"govkernel/internal/registry"
	"govkernel/pkg/logging"
)

// Kernel is the governed entry point into the runtime. Every call a
// plugin or an outside bootstrap makes goes through Invoke, which adds a
// trace span, emits Prometheus metrics, and records an audit trail on
// top of whatever manager.Manager.InvokeService already does.
type Kernel struct {
	mgr    *manager.Manager
	tracer oteltrace.Tracer
}

// New constructs a Kernel over mgr. If provider is nil, the globally
// configured OpenTelemetry TracerProvider is used.
func New(mgr *manager.Manager, provider oteltrace.TracerProvider) *Kernel {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Kernel{mgr: mgr, tracer: provider.Tracer("govkernel")}
}

// Invoke routes fqsid through the manager's governed pipeline, wrapped in
// a trace span and instrumented with invocation metrics. A blank TraceID
// on invCtx is assigned a fresh one so every audit record and span can be
// correlated even when the caller didn't set one.
func (k *Kernel) Invoke(ctx context.Context, fqsid api.FQSID, invCtx api.InvocationContext, call manager.BeanCall) (any, error) {
	if invCtx.TraceID == "" {
		invCtx.TraceID = uuid.NewString()
	}

	ctx, span := k.tracer.Start(ctx, "invoke:"+string(fqsid), oteltrace.WithAttributes(
		attribute.String("fqsid", string(fqsid)),
		attribute.String("caller", string(invCtx.CallerModuleId)),
		attribute.String("trace_id", invCtx.TraceID),
	))
	defer span.End()

	start := time.Now()
	result, err := k.mgr.InvokeService(ctx, fqsid, invCtx, call)
	duration := time.Since(start)

	module := string(fqsid.ModuleOf())
	resultLabel := "ok"
	if err != nil {
		resultLabel = errorResultLabel(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if resultLabel == "rejected" || resultLabel == "resource_exhausted" {
			recordRejection(module, resultLabel)
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	recordInvocation(module, resultLabel, duration.Seconds())

	go k.audit(invCtx, duration, err)

	return result, err
}

func (k *Kernel) audit(invCtx api.InvocationContext, duration time.Duration, err error) {
	event := logging.AuditEvent{
		Caller:     string(invCtx.CallerModuleId),
		Target:     string(invCtx.TargetModuleId),
		Action:     invCtx.Operation,
		Allowed:    err == nil || !api.IsKind(err, api.KindPermissionDenied),
		Success:    err == nil,
		DurationMs: duration.Milliseconds(),
		TraceID:    invCtx.TraceID,
	}
	if err != nil {
		event.Error = err.Error()
	}
	logging.Audit(event)
}

func errorResultLabel(err error) string {
	switch {
	case api.IsKind(err, api.KindPermissionDenied):
		return "permission_denied"
	case api.IsKind(err, api.KindRejected):
		return "rejected"
	case api.IsKind(err, api.KindTimeout):
		return "timeout"
	case api.IsKind(err, api.KindServiceNotFound):
		return "service_not_found"
	case api.IsKind(err, api.KindServiceUnavailable):
		return "service_unavailable"
	case api.IsKind(err, api.KindResourceExhausted):
		return "resource_exhausted"
	case api.IsKind(err, api.KindInvocationError):
		return "invocation_error"
	case api.IsKind(err, api.KindInterrupted):
		return "interrupted"
	default:
		return "error"
	}
}

// PluginContextFor builds the PluginContext a running instance of
// moduleID uses to call back into the kernel.
func (k *Kernel) PluginContextFor(moduleID api.ModuleId) api.PluginContext {
	return &pluginContext{moduleID: moduleID, kernel: k}
}

// RegisterProtocolService exposes the manager's binding registration to
// bootstrap code wiring up a module's published services. isNew reports
// whether this was the fqsid's first registration rather than an
// overwrite.
func (k *Kernel) RegisterProtocolService(fqsid api.FQSID, interfaceType string, moduleID api.ModuleId) (isNew bool, err error) {
	return k.mgr.RegisterProtocolService(fqsid, interfaceType, moduleID)
}

// GetGlobalServiceProxy delegates to the manager's memoized proxy lookup.
func (k *Kernel) GetGlobalServiceProxy(interfaceType string, factory registry.ProxyFactory) (any, bool) {
	return k.mgr.GetGlobalServiceProxy(interfaceType, factory)
}
