package bus

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"govkernel/internal/api"
)

func TestPublishDispatchesToAllSubscribers(t *testing.T) {
	b := New(api.ModuleId("mod-a"))

	var count int32
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		b.Subscribe(func(event api.RuntimeEvent) {
			atomic.AddInt32(&count, 1)
			wg.Done()
		})
	}

	b.Publish(api.NewInstanceReady("mod-a", "v1"))

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscribers")
	}

	if got := atomic.LoadInt32(&count); got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New(api.ModuleId("mod-a"))

	var count int32
	sub := b.Subscribe(func(event api.RuntimeEvent) {
		atomic.AddInt32(&count, 1)
	})
	b.Unsubscribe(sub)

	b.Publish(api.NewInstanceReady("mod-a", "v1"))
	time.Sleep(20 * time.Millisecond)

	if got := atomic.LoadInt32(&count); got != 0 {
		t.Fatalf("count = %d, want 0 after unsubscribe", got)
	}
}

func TestPanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	b := New(api.ModuleId("mod-a"))

	var wg sync.WaitGroup
	wg.Add(1)
	b.Subscribe(func(event api.RuntimeEvent) {
		panic("boom")
	})
	b.Subscribe(func(event api.RuntimeEvent) {
		wg.Done()
	})

	b.Publish(api.NewInstanceReady("mod-a", "v1"))

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("panicking subscriber blocked the healthy one")
	}
}

func TestClearRemovesAllSubscribers(t *testing.T) {
	b := New(api.ModuleId("mod-a"))
	b.Subscribe(func(event api.RuntimeEvent) {})
	b.Subscribe(func(event api.RuntimeEvent) {})

	if b.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", b.Count())
	}

	b.Clear()
	if b.Count() != 0 {
		t.Fatalf("Count() = %d, want 0 after Clear", b.Count())
	}
}

func TestPublishWithNoSubscribersDoesNotPanic(t *testing.T) {
	b := New(api.ModuleId("mod-a"))
	b.Publish(api.NewRuntimeShutdown("mod-a"))
}
