// Package preflight validates the runtime environment (directories, disk
// space, external tools) before work begins.
package preflight
