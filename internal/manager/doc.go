// Package manager is the governance kernel's top-level composition root:
// it owns one runtime.Runtime per installed module (each with its own
// service registry) and the protocol index mapping an interface type to
// the FQSIDs that implement it. Install, Reload, DeployCanary, and
// Uninstall serialize per module via one mutex per module id so concurrent
// operations against different modules never block each other, while
// operations against the same module never interleave.
package manager
