// Package database bundles the stores of all record kinds and their uid
// counters for one data directory.
//
// Open loads the counters first and the stores second: loading a store
// raises its counter to the highest identifier on disk, so the order
// guarantees that a stale counter file never wins. Save persists the counters
// first and the stores second; a crash in between leaves counters ahead of
// the stores, which only creates gaps in the identifier sequence.
//
// Saves are atomic per file, not across files.
package database
