// Package stage defines the contract between the workflow manager and the
// job handlers it dispatches to.
package stage
