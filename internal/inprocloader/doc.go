// Package inprocloader provides a minimal in-process ModuleLoader and
// ContainerFactory. Real deployments resolve module code from plugin
// archives or separate processes (out of scope for this kernel); this
// package exists so modules whose code already lives in the host binary
// can be installed without a custom loader, and so tests have a
// ModuleContainer they can exercise without faking one by hand.
package inprocloader
