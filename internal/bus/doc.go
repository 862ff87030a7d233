// Package bus implements the per-module lifecycle event bus: one Bus per
// module, fed by internal/lifecycle, internal/executor and
// manager.PublishModuleEvent, consumed by internal/registry (proxy cache
// invalidation) and anything else that subscribes.
//
// Subscribers run synchronously from the publisher's point of view:
// Publish blocks until every handler has returned. Each handler runs on
// its own goroutine under a recover, so a panicking subscriber cannot take
// down the process, but a slow subscriber does stall the publisher.
package bus
