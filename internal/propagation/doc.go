// Package propagation provides reference ThreadLocalPropagator
// implementations.
//
// Java module frameworks hop work onto pooled worker threads and carry
// ThreadLocal state (MDC log fields, trace correlation ids) across that
// hop by copying it onto the worker thread before the call and restoring
// the worker thread's previous value after. Go has no per-goroutine
// storage to copy, so these propagators model the same contract around
// a single guarded carrier: Capture reads the carrier on the caller's
// goroutine, Replay swaps in the captured value on the worker goroutine
// and hands back what was there before, and Restore puts that prior
// value back once the call returns. The mutex makes the hand-off safe;
// it does not make the carrier itself a true per-goroutine value, so
// concurrent async invocations on the same propagator serialize through
// it rather than each seeing an independent view.
package propagation
