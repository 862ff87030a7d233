package inprocloader

import (
	"context"
	"testing"

	"govkernel/internal/api"
)

func TestLoaderRejectsWrongSourceType(t *testing.T) {
	l := NewLoader()
	if _, err := l.Create("mod-a", "not-a-source", nil); err == nil {
		t.Fatal("expected error for non-*Source ModuleSource")
	}
}

func TestFactoryBuildsWorkingContainer(t *testing.T) {
	started := false
	stopped := false
	src := &Source{
		BeansByType: map[string]any{"Greeter": "hello"},
		BeansByName: map[string]any{"greeter": "hello"},
		OnStart:     func(ctx context.Context) error { started = true; return nil },
		OnStop:      func() { stopped = true },
	}

	f := NewFactory()
	container, err := f.Create("mod-a", src, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if container.IsActive() {
		t.Fatal("container should not be active before Start")
	}
	if err := container.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !started || !container.IsActive() {
		t.Fatal("expected OnStart to run and container to become active")
	}

	if bean, ok := container.GetBeanByType("Greeter"); !ok || bean != "hello" {
		t.Fatalf("expected Greeter bean, got %v, %v", bean, ok)
	}
	if bean, ok := container.GetBeanByName("greeter"); !ok || bean != "hello" {
		t.Fatalf("expected greeter bean by name, got %v, %v", bean, ok)
	}
	if _, ok := container.GetBeanByType("Missing"); ok {
		t.Fatal("expected Missing bean to be absent")
	}

	container.Stop()
	if !stopped || container.IsActive() {
		t.Fatal("expected OnStop to run and container to become inactive")
	}
}

func TestFactoryRejectsWrongSourceType(t *testing.T) {
	f := NewFactory()
	if _, err := f.Create("mod-a", 42, nil); err == nil {
		t.Fatal("expected error for non-*Source ModuleSource")
	}
}

func TestContainerStartFailurePropagates(t *testing.T) {
	src := &Source{OnStart: func(ctx context.Context) error { return errBoom }}
	f := NewFactory()
	container, _ := f.Create("mod-a", src, nil)
	if err := container.Start(context.Background()); err == nil {
		t.Fatal("expected Start to propagate OnStart error")
	}
	if container.IsActive() {
		t.Fatal("container should not be active after a failed Start")
	}
}

var errBoom = api.ErrInvalidArgument("boom")
