package instance

import (
	"context"
	"testing"

	"govkernel/internal/api"
)

type fakeContainer struct {
	active    bool
	startErr  error
	stopCalls int
}

func (f *fakeContainer) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.active = true
	return nil
}
func (f *fakeContainer) Stop() {
	f.stopCalls++
	f.active = false
}
func (f *fakeContainer) IsActive() bool                             { return f.active }
func (f *fakeContainer) GetBeanByType(typeName string) (any, bool)  { return nil, false }
func (f *fakeContainer) GetBeanByName(name string) (any, bool)      { return nil, false }

func newTestInstance() (*Instance, *fakeContainer) {
	c := &fakeContainer{active: true}
	inst := New("mod-a", "v1", &api.ModuleDefinition{ID: "mod-a", Version: "v1"}, api.LabelSet{"env": "prod"}, c)
	return inst, c
}

func TestTryEnterRequiresReady(t *testing.T) {
	inst, _ := newTestInstance()
	if inst.TryEnter() {
		t.Fatal("TryEnter should fail before MarkReady")
	}
	inst.MarkReady()
	if !inst.TryEnter() {
		t.Fatal("TryEnter should succeed once ready")
	}
	if inst.ActiveRequestCount() != 1 {
		t.Fatalf("ActiveRequestCount = %d, want 1", inst.ActiveRequestCount())
	}
	inst.Exit()
	if inst.ActiveRequestCount() != 0 {
		t.Fatalf("ActiveRequestCount = %d, want 0 after Exit", inst.ActiveRequestCount())
	}
}

func TestTryEnterRefusesDying(t *testing.T) {
	inst, _ := newTestInstance()
	inst.MarkReady()
	inst.MarkDying()
	if inst.TryEnter() {
		t.Fatal("TryEnter should refuse a dying instance")
	}
	if inst.IsReady() {
		t.Fatal("IsReady should be false once dying")
	}
}

func TestIsIdleTracksAdmissions(t *testing.T) {
	inst, _ := newTestInstance()
	inst.MarkReady()
	if !inst.IsIdle() {
		t.Fatal("fresh instance should be idle")
	}
	inst.TryEnter()
	if inst.IsIdle() {
		t.Fatal("instance with an admitted call should not be idle")
	}
	inst.Exit()
	if !inst.IsIdle() {
		t.Fatal("instance should be idle again after Exit")
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	inst, c := newTestInstance()
	inst.MarkReady()
	c.active = true

	inst.Destroy(context.Background())
	inst.Destroy(context.Background())

	if c.stopCalls != 1 {
		t.Fatalf("container Stop called %d times, want 1", c.stopCalls)
	}
	if !inst.IsDestroyed() {
		t.Fatal("IsDestroyed should be true after Destroy")
	}
	if !inst.IsDying() {
		t.Fatal("Destroy should imply dying")
	}
}

func TestContainerActiveReflectsContainer(t *testing.T) {
	c := &fakeContainer{}
	inst := New("mod-a", "v1", &api.ModuleDefinition{ID: "mod-a", Version: "v1"}, api.LabelSet{"env": "prod"}, c)
	if inst.ContainerActive() {
		t.Fatal("container not started yet")
	}
	c.active = true
	if !inst.ContainerActive() {
		t.Fatal("ContainerActive should reflect the container's IsActive")
	}
}

func TestTryEnterRefusesInactiveContainer(t *testing.T) {
	c := &fakeContainer{}
	inst := New("mod-a", "v1", &api.ModuleDefinition{ID: "mod-a", Version: "v1"}, api.LabelSet{"env": "prod"}, c)
	inst.MarkReady()
	if inst.TryEnter() {
		t.Fatal("TryEnter should refuse admission while the container reports inactive")
	}
	c.active = true
	if !inst.TryEnter() {
		t.Fatal("TryEnter should admit once the container is active")
	}
}
