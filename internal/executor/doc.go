// Package executor implements the governed invocation pipeline's dispatch
// stage: given a bound method to run, it decides synchronous vs
// asynchronous dispatch via the registered TransactionVerifier, admits
// asynchronous calls through a per-module bulkhead
// (golang.org/x/sync/semaphore, the same module the teacher already
// depends on for deduplicating concurrent work via singleflight), runs
// admitted calls on a small fixed worker pool so the caller's goroutine is
// never the one blocked on the target module's code, propagates
// goroutine-scoped state across that hop via the registered
// ThreadLocalPropagators, and enforces acquisition and execution timeouts.
package executor
