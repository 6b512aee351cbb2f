// Package workflow runs the background processing loop: it claims queued
// jobs, dispatches them to registered stage handlers, maintains heartbeats,
// and reclaims work abandoned by dead processes.
package workflow
