// Command custody is the operator CLI for the evidence pipeline: batch
// ingest, normalization, sealed exports, ledger verification, and the
// background processing queue.
package main
