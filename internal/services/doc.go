// Package services provides shared error classification and context
// plumbing used by every pipeline stage. Stage implementations wrap
// failures with Wrap so the workflow manager and CLI can route them
// (retry, review, or hard failure) without string matching.
package services
