// Package runtime composes one module's instance pool, lifecycle manager,
// and executor into the object that actually serves calls: it picks which
// ready instance handles a given invocation (via the registered
// TrafficRouter, falling back to the pool's default), admits the call on
// that instance, dispatches it through the executor, and tracks how much
// traffic each version has received — the data behind canary rollout
// decisions.
package runtime
