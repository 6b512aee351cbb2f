// Package jobs persists the processing queue backing the worker-pool
// execution model. Each job is one self-contained unit of work (normalize
// one evidence item, build one export package); the evidence store and the
// integrity ledger are the only state shared between jobs, so any number
// of workers can drain the queue concurrently.
package jobs
