package executor

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"govkernel/internal/api"
	"govkernel/internal/bus"
)

type fakeVerifier struct {
	transactional map[string]bool
}

func (f *fakeVerifier) IsTransactional(methodName, beanTypeName string) bool {
	return f.transactional[methodName]
}

type fakePropagator struct {
	captured  int32
	replayed  int32
	restored  int32
}

func (f *fakePropagator) Capture() any {
	atomic.AddInt32(&f.captured, 1)
	return "snapshot"
}
func (f *fakePropagator) Replay(snapshot any) any {
	atomic.AddInt32(&f.replayed, 1)
	return "backup"
}
func (f *fakePropagator) Restore(backup any) {
	atomic.AddInt32(&f.restored, 1)
}

func setup(t *testing.T) func() {
	t.Helper()
	api.ResetForTesting()
	return func() { api.ResetForTesting() }
}

func TestExecuteSyncRunsOnCallerPathAndPublishesEvents(t *testing.T) {
	defer setup(t)()
	api.RegisterTransactionVerifier(&fakeVerifier{transactional: map[string]bool{"save": true}})

	b := bus.New("mod-a")
	var events []api.RuntimeEvent
	var mu sync.Mutex
	b.Subscribe(func(e api.RuntimeEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	e := New("mod-a", b, 4, 2, time.Second, time.Second)
	defer e.Shutdown()

	val, err := e.Execute(context.Background(), Request{
		FQSID:        api.NewFQSID("mod-a", "s1"),
		MethodName:   "save",
		BeanTypeName: "Repo",
		Fn: func(ctx context.Context) (any, error) {
			return "ok", nil
		},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if val != "ok" {
		t.Fatalf("value = %v, want ok", val)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 {
		t.Fatalf("expected 2 events (started, completed), got %d", len(events))
	}
}

func TestExecuteAsyncRunsOffCallerGoroutine(t *testing.T) {
	defer setup(t)()
	api.RegisterTransactionVerifier(&fakeVerifier{})

	e := New("mod-a", bus.New("mod-a"), 4, 2, time.Second, time.Second)
	defer e.Shutdown()

	callerGoroutine := make(chan bool, 1)
	done := make(chan struct{})
	go func() {
		callerGoroutine <- true
	}()

	callerID := goroutineID()
	var workerID string
	val, err := e.Execute(context.Background(), Request{
		FQSID:      api.NewFQSID("mod-a", "s1"),
		MethodName: "compute",
		Fn: func(ctx context.Context) (any, error) {
			workerID = goroutineID()
			close(done)
			return 42, nil
		},
	})
	<-callerGoroutine
	<-done
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if val != 42 {
		t.Fatalf("value = %v, want 42", val)
	}
	if workerID == callerID {
		t.Fatalf("async call ran on the caller's goroutine %s", callerID)
	}
}

// goroutineID returns the current goroutine's id as printed in its stack
// header ("goroutine 18 [running]:").
func goroutineID() string {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	return strings.Fields(string(buf))[1]
}

func TestExecuteAsyncPropagatesThreadLocals(t *testing.T) {
	defer setup(t)()
	api.RegisterTransactionVerifier(&fakeVerifier{})
	p := &fakePropagator{}
	api.RegisterPropagator(p)

	e := New("mod-a", bus.New("mod-a"), 4, 2, time.Second, time.Second)
	defer e.Shutdown()

	_, err := e.Execute(context.Background(), Request{
		FQSID:      api.NewFQSID("mod-a", "s1"),
		MethodName: "compute",
		Fn: func(ctx context.Context) (any, error) {
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if atomic.LoadInt32(&p.captured) != 1 || atomic.LoadInt32(&p.replayed) != 1 || atomic.LoadInt32(&p.restored) != 1 {
		t.Fatalf("propagator lifecycle not fully exercised: captured=%d replayed=%d restored=%d",
			p.captured, p.replayed, p.restored)
	}
}

func TestExecuteAsyncRejectedWhenBulkheadFull(t *testing.T) {
	defer setup(t)()
	api.RegisterTransactionVerifier(&fakeVerifier{})

	e := New("mod-a", bus.New("mod-a"), 1, 1, 30*time.Millisecond, time.Second)
	defer e.Shutdown()

	block := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.Execute(context.Background(), Request{
			FQSID:      api.NewFQSID("mod-a", "s1"),
			MethodName: "slow",
			Fn: func(ctx context.Context) (any, error) {
				<-block
				return nil, nil
			},
		})
	}()
	time.Sleep(20 * time.Millisecond) // let the first call occupy the only permit

	_, err := e.Execute(context.Background(), Request{
		FQSID:      api.NewFQSID("mod-a", "s2"),
		MethodName: "slow",
		Fn: func(ctx context.Context) (any, error) {
			return nil, nil
		},
	})
	if !api.IsKind(err, api.KindRejected) {
		t.Fatalf("expected KindRejected, got %v", err)
	}

	close(block)
	wg.Wait()
}

func TestExecuteAsyncTimesOutAgainstBackgroundCallerContext(t *testing.T) {
	defer setup(t)()
	api.RegisterTransactionVerifier(&fakeVerifier{})

	e := New("mod-a", bus.New("mod-a"), 4, 2, time.Second, 20*time.Millisecond)
	defer e.Shutdown()

	block := make(chan struct{})
	defer close(block)

	// context.Background() never cancels on its own — the executor must
	// still enforce its own T_exec deadline rather than relying on the
	// caller's context to expire.
	_, err := e.Execute(context.Background(), Request{
		FQSID:      api.NewFQSID("mod-a", "s1"),
		MethodName: "slow",
		Fn: func(ctx context.Context) (any, error) {
			<-block // ignores ctx cancellation, simulating a non-cooperative method
			return nil, nil
		},
	})
	if !api.IsKind(err, api.KindTimeout) {
		t.Fatalf("expected KindTimeout, got %v", err)
	}
}

func TestExecuteSyncWrapsBindingError(t *testing.T) {
	defer setup(t)()
	api.RegisterTransactionVerifier(&fakeVerifier{transactional: map[string]bool{"save": true}})

	e := New("mod-a", bus.New("mod-a"), 4, 2, time.Second, time.Second)
	defer e.Shutdown()

	_, err := e.Execute(context.Background(), Request{
		FQSID:        api.NewFQSID("mod-a", "s1"),
		MethodName:   "save",
		BeanTypeName: "Repo",
		Fn: func(ctx context.Context) (any, error) {
			return nil, errors.New("boom")
		},
	})
	if !api.IsKind(err, api.KindInvocationError) {
		t.Fatalf("expected KindInvocationError, got %v", err)
	}
}
