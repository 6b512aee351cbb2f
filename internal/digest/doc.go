// Package digest computes streaming SHA-256 content digests and performs
// integrity-verified file copies. Everything in the evidence store is keyed
// by the digests this package produces.
package digest
