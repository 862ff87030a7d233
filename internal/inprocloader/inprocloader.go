package inprocloader

import (
	"context"
	"fmt"
	"sync"

	"govkernel/internal/api"
)

// Source describes a module whose beans already live in the host binary.
// Pass a *Source as the ModuleSource when installing such a module.
type Source struct {
	// BeansByType maps a Go type name (as GetBeanByType receives it) to
	// the bean instance.
	BeansByType map[string]any
	// BeansByName maps a registered bean name to the bean instance.
	BeansByName map[string]any
	// OnStart, if set, runs once when the container starts; a non-nil
	// error fails the instance before it ever becomes ready.
	OnStart func(ctx context.Context) error
	// OnStop, if set, runs once when the container stops.
	OnStop func()
}

// handle is the ClassResolutionHandle returned for an in-process source.
// There is no external resource to release.
type handle struct{}

func (handle) Close() error { return nil }

// Loader is a ModuleLoader for modules whose ModuleSource is an
// *inprocloader.Source. It does no class resolution work of its own.
type Loader struct{}

// NewLoader constructs an in-process ModuleLoader.
func NewLoader() *Loader { return &Loader{} }

func (Loader) Create(moduleID api.ModuleId, source api.ModuleSource, parent api.ClassResolutionHandle) (api.ClassResolutionHandle, error) {
	if _, ok := source.(*Source); !ok {
		return nil, fmt.Errorf("inprocloader: module %s source is %T, want *inprocloader.Source", moduleID, source)
	}
	return handle{}, nil
}

// Container is the ModuleContainer built from a Source.
type Container struct {
	moduleID api.ModuleId
	source   *Source
	mu       sync.RWMutex
	active   bool
}

func (c *Container) Start(ctx context.Context) error {
	if c.source.OnStart != nil {
		if err := c.source.OnStart(ctx); err != nil {
			return fmt.Errorf("inprocloader: module %s start: %w", c.moduleID, err)
		}
	}
	c.mu.Lock()
	c.active = true
	c.mu.Unlock()
	return nil
}

func (c *Container) Stop() {
	c.mu.Lock()
	c.active = false
	c.mu.Unlock()
	if c.source.OnStop != nil {
		c.source.OnStop()
	}
}

func (c *Container) IsActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

func (c *Container) GetBeanByType(typeName string) (any, bool) {
	bean, ok := c.source.BeansByType[typeName]
	return bean, ok
}

func (c *Container) GetBeanByName(name string) (any, bool) {
	bean, ok := c.source.BeansByName[name]
	return bean, ok
}

// Factory is a ContainerFactory that builds a Container from a
// *inprocloader.Source.
type Factory struct{}

// NewFactory constructs an in-process ContainerFactory.
func NewFactory() *Factory { return &Factory{} }

func (Factory) Create(moduleID api.ModuleId, source api.ModuleSource, resolved api.ClassResolutionHandle) (api.ModuleContainer, error) {
	src, ok := source.(*Source)
	if !ok {
		return nil, fmt.Errorf("inprocloader: module %s source is %T, want *inprocloader.Source", moduleID, source)
	}
	return &Container{moduleID: moduleID, source: src}, nil
}
