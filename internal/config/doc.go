// Package config loads ModuleDefinitions from YAML files and, optionally,
// watches a directory for edits so a running module can be reloaded
// without restarting the process. It is the only package in the kernel
// that knows about the on-disk representation of a definition; everything
// downstream deals exclusively in api.ModuleDefinition.
package config
