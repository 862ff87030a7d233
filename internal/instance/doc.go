// Package instance implements one running copy of a module's code
// (Instance) and the per-module collection of such copies (Pool) that
// together realize the blue/green upgrade model: a new version is added
// alongside the old one, traffic drains off the old version as it is
// marked dying, and it is only destroyed once its last in-flight call
// finishes.
package instance
