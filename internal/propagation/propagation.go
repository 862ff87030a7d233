package propagation

import "sync"

// MDCFields propagates a set of structured logging fields across the
// caller-to-worker hop, analogous to slf4j's MDC.
type MDCFields struct {
	mu      sync.Mutex
	current map[string]string
}

// NewMDCFields constructs an MDCFields propagator with an empty field set.
func NewMDCFields() *MDCFields {
	return &MDCFields{current: map[string]string{}}
}

// Set records a field to be carried into subsequent async invocations
// captured from this goroutine.
func (m *MDCFields) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current[key] = value
}

// Current returns a copy of the fields visible on whichever goroutine
// calls it. Worker goroutines call this from inside the invocation to
// read the fields propagated in by Replay.
func (m *MDCFields) Current() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.current))
	for k, v := range m.current {
		out[k] = v
	}
	return out
}

// Capture snapshots the fields as they stand on the caller's goroutine.
func (m *MDCFields) Capture() any {
	return m.Current()
}

// Replay installs snapshot as the current field set on the worker
// goroutine and returns the fields it displaced so Restore can put them
// back.
func (m *MDCFields) Replay(snapshot any) (backup any) {
	fields, _ := snapshot.(map[string]string)
	m.mu.Lock()
	defer m.mu.Unlock()
	backup = m.current
	m.current = fields
	return backup
}

// Restore reinstates the field set that Replay displaced.
func (m *MDCFields) Restore(backup any) {
	fields, _ := backup.(map[string]string)
	if fields == nil {
		fields = map[string]string{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = fields
}

// TraceContext propagates a single correlation id across the
// caller-to-worker hop, for code that reads an ambient trace id rather
// than accepting one as a parameter.
type TraceContext struct {
	mu      sync.Mutex
	current string
}

// NewTraceContext constructs an empty TraceContext propagator.
func NewTraceContext() *TraceContext {
	return &TraceContext{}
}

// Set records the correlation id visible to Current on this goroutine.
func (t *TraceContext) Set(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = id
}

// Current returns the correlation id currently installed.
func (t *TraceContext) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

func (t *TraceContext) Capture() any {
	return t.Current()
}

func (t *TraceContext) Replay(snapshot any) (backup any) {
	id, _ := snapshot.(string)
	t.mu.Lock()
	defer t.mu.Unlock()
	backup = t.current
	t.current = id
	return backup
}

func (t *TraceContext) Restore(backup any) {
	id, _ := backup.(string)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = id
}
