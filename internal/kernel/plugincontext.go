package kernel

import (
	"context"

	"govkernel/internal/api"
)

// Invokable is the contract a bean must satisfy to be called dynamically
// through PluginContext.Invoke, where the caller knows only an FQSID and
// a generic argument list rather than a concrete Go interface. Modules
// that want typed, direct Go method calls should fetch the bean via
// GetService instead and type-assert it themselves.
type Invokable interface {
	Invoke(ctx context.Context, args []interface{}) (any, error)
}

// pluginContext is the PluginContext handed to one module's running
// instance. It closes over the owning Kernel so every call a module makes
// back into the runtime goes through the same governed path as an
// external caller would.
type pluginContext struct {
	moduleID api.ModuleId
	kernel   *Kernel
}

func (p *pluginContext) PluginId() api.ModuleId { return p.moduleID }

func (p *pluginContext) Property(key string) (string, bool) {
	rt, ok := p.kernel.mgr.Runtime(p.moduleID)
	if !ok {
		return "", false
	}
	def := rt.Definition()
	if def == nil || def.Properties == nil {
		return "", false
	}
	v, ok := def.Properties[key]
	return v, ok
}

func (p *pluginContext) GetService(ctx context.Context, interfaceType string) (any, bool) {
	return p.kernel.mgr.GetService(p.moduleID, interfaceType)
}

func (p *pluginContext) Invoke(ctx context.Context, fqsid api.FQSID, args []interface{}) (any, bool) {
	invCtx := api.InvocationContext{
		CallerModuleId: p.moduleID,
		TargetModuleId: fqsid.ModuleOf(),
		Operation:      "invoke",
		Args:           args,
	}
	result, err := p.kernel.Invoke(ctx, fqsid, invCtx, func(ctx context.Context, bean any) (any, error) {
		invokable, ok := bean.(Invokable)
		if !ok {
			return nil, api.ErrInvocation(api.NewError(api.KindInvalidArgument, "bean does not implement Invokable", nil))
		}
		return invokable.Invoke(ctx, args)
	})
	if err != nil {
		return nil, false
	}
	return result, true
}

// PublishEvent broadcasts event to moduleID's own event bus subscribers.
// Lifecycle events (instance ready/dying/destroyed, shutdown) are already
// published by the runtime and lifecycle manager; this is for
// application-level events a module wants its own subscribers to see
// alongside those.
func (p *pluginContext) PublishEvent(event any) {
	if re, ok := event.(api.RuntimeEvent); ok {
		p.kernel.mgr.PublishModuleEvent(p.moduleID, re)
	}
}

func (p *pluginContext) PermissionService() api.PermissionService {
	return api.GetPermissionService()
}
