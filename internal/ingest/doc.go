// Package ingest walks a dump folder of evidence files, stores every
// supported file in the evidence store exactly once, extracts filename
// metadata, and groups time-adjacent recordings into sequences.
package ingest
