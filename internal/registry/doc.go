// Package registry implements one module's own service registry: the
// mapping from each FQSID that module publishes to its ServiceBinding, and
// the proxy cache that memoizes the (possibly expensive)
// construction of a callable stub for a given FQSID so concurrent first
// callers don't duplicate the work.
package registry
