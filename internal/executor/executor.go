package executor

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"govkernel/internal/api"
	"govkernel/internal/bus"
	"govkernel/pkg/logging"
)

// Request describes one bound-method call ready to execute. Fn receives a
// context already bound by the executor's execution timeout.
type Request struct {
	FQSID        api.FQSID
	MethodName   string
	BeanTypeName string
	Context      api.InvocationContext
	Fn           func(ctx context.Context) (any, error)
}

type result struct {
	value any
	err   error
}

// Executor dispatches requests for one module, synchronously or
// asynchronously depending on TransactionVerifier, admitting asynchronous
// calls through a bulkhead before running them on a bounded worker pool.
type Executor struct {
	moduleID api.ModuleId
	bus      *bus.Bus

	sem            *semaphore.Weighted
	acquireTimeout time.Duration
	execTimeout    time.Duration

	tasks chan func()
	stop  chan struct{}
}

// New constructs an Executor for moduleID. bulkheadCapacity bounds how many
// calls may be admitted (queued or running) at once; workerCount bounds how
// many of those actually run concurrently.
func New(moduleID api.ModuleId, moduleBus *bus.Bus, bulkheadCapacity, workerCount int, acquireTimeout, execTimeout time.Duration) *Executor {
	e := &Executor{
		moduleID:       moduleID,
		bus:            moduleBus,
		sem:            semaphore.NewWeighted(int64(bulkheadCapacity)),
		acquireTimeout: acquireTimeout,
		execTimeout:    execTimeout,
		tasks:          make(chan func(), bulkheadCapacity),
		stop:           make(chan struct{}),
	}
	for i := 0; i < workerCount; i++ {
		go e.worker()
	}
	return e
}

func (e *Executor) worker() {
	for {
		select {
		case <-e.stop:
			return
		case task := <-e.tasks:
			task()
		}
	}
}

// Shutdown stops the worker goroutines. A task a worker has already
// dequeued runs to completion. Execute keeps accepting calls afterwards:
// a transactional call still runs on the caller's goroutine, while an
// asynchronous call is queued, never picked up, and fails with a timeout.
func (e *Executor) Shutdown() {
	close(e.stop)
}

// Execute runs req either synchronously on the caller's goroutine (when
// the registered TransactionVerifier says the method is transactional) or
// asynchronously through the bulkhead and worker pool.
func (e *Executor) Execute(ctx context.Context, req Request) (any, error) {
	if tv := api.GetTransactionVerifier(); tv != nil && tv.IsTransactional(req.MethodName, req.BeanTypeName) {
		return e.executeSync(ctx, req)
	}
	return e.executeAsync(ctx, req)
}

func (e *Executor) executeSync(ctx context.Context, req Request) (any, error) {
	e.publish(api.NewInvocationStarted(e.moduleID, req.FQSID))
	start := time.Now()

	execCtx, cancel := context.WithTimeout(ctx, e.execTimeout)
	defer cancel()

	value, err := req.Fn(execCtx)
	if err != nil {
		e.publish(api.NewInvocationRejected(e.moduleID, req.FQSID, err.Error()))
		return nil, api.ErrInvocation(err)
	}
	e.publish(api.NewInvocationCompleted(e.moduleID, req.FQSID, time.Since(start).Milliseconds()))
	return value, nil
}

func (e *Executor) executeAsync(ctx context.Context, req Request) (any, error) {
	// execCtx bounds the whole async round trip — dispatch wait plus
	// execution — by e.execTimeout, independent of the caller's own ctx
	// (which may be context.Background() and never expire on its own).
	execCtx, execCancel := context.WithTimeout(ctx, e.execTimeout)
	defer execCancel()

	acquireCtx, cancel := context.WithTimeout(ctx, e.acquireTimeout)
	defer cancel()

	if err := e.sem.Acquire(acquireCtx, 1); err != nil {
		logging.Warn("Executor", "module %s: bulkhead admission timed out for %s", e.moduleID, req.FQSID)
		e.publish(api.NewInvocationRejected(e.moduleID, req.FQSID, "bulkhead admission timed out"))
		return nil, api.ErrRejected("bulkhead capacity exhausted for " + string(e.moduleID))
	}

	resultCh := make(chan result, 1)

	// Captured on the caller's goroutine before the hop to a worker;
	// replayed there so the bound method observes the caller's
	// goroutine-scoped state even though it runs elsewhere.
	propagators := api.Propagators()
	snapshots := make([]any, len(propagators))
	for i, p := range propagators {
		snapshots[i] = p.Capture()
	}

	task := func() {
		// Deferred first so it runs last: the caller only sees the result
		// once the permit is released and the propagators are restored.
		var r result
		defer func() { resultCh <- r }()
		defer e.sem.Release(1)

		backups := make([]any, len(propagators))
		for i, p := range propagators {
			backups[i] = p.Replay(snapshots[i])
		}
		defer func() {
			for i, p := range propagators {
				p.Restore(backups[i])
			}
		}()

		e.publish(api.NewInvocationStarted(e.moduleID, req.FQSID))
		start := time.Now()
		value, err := req.Fn(execCtx)
		if err != nil {
			e.publish(api.NewInvocationRejected(e.moduleID, req.FQSID, err.Error()))
			r = result{err: api.ErrInvocation(err)}
			return
		}
		e.publish(api.NewInvocationCompleted(e.moduleID, req.FQSID, time.Since(start).Milliseconds()))
		r = result{value: value}
	}

	select {
	case e.tasks <- task:
	case <-execCtx.Done():
		e.sem.Release(1)
		return nil, api.ErrInterrupted("caller context cancelled before dispatch")
	}

	select {
	case r := <-resultCh:
		return r.value, r.err
	case <-execCtx.Done():
		return nil, api.ErrTimeout(req.FQSID)
	}
}

func (e *Executor) publish(event api.RuntimeEvent) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(event)
}
