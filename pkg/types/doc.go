// Package types contains the shared domain types for the chunking pipeline:
// unit spans produced by boundary extraction, chunk plans produced by the
// planner, materialized chunks, cache entries, and per-document results.
//
// Types here are fixed-shape records. Optional state is expressed with
// pointer fields (absent != empty) rather than dynamically keyed maps.
package types
