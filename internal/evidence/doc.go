// Package evidence implements the content-addressed store for originals and
// their derivatives. Identity is the SHA-256 of a file's bytes: identical
// uploads deduplicate to one stored original, stored bytes are never
// modified, and every stored artifact can be re-verified against its
// recorded digest at any time.
package evidence
