// Package ingestion accepts high-rate driver position samples and fans
// them out to the geospatial index and the durable location history.
//
// The intake queue is bounded: under overload the pipeline sheds samples
// and reports ErrOverloaded instead of blocking producers. Storage writes
// are batched and idempotent on the (driver, recorded time) key, so
// retried or duplicated batches never double-count. Batches that keep
// failing are handed to a dead letter hook.
package ingestion
