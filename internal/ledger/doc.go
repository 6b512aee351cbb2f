// Package ledger implements the append-only, hash-chained audit trail.
// Each line of the JSONL file embeds the SHA-256 of the raw bytes of the
// line before it, so any insertion, deletion, or modification anywhere in
// the file is detectable by replaying the chain. The ledger is deliberately
// independent of the relational database: losing or tampering with the
// database does not erase evidentiary audit history.
package ledger
