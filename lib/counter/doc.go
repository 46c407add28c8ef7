// Package counter provides durable, monotonic uid generators.
//
// A Counter hands out identifiers with Next using a single atomic add, so no
// external locking is required and no two callers ever receive the same
// value. The value is persisted to a dedicated file (one decimal integer, the
// last issued uid) through the atomicfile package and recovered with Load at
// startup.
//
// Persisting is explicit: Persist does not need to follow every Next. After
// a crash the recovered value may lag behind the in-memory value, which only
// produces gaps in the id sequence. Reuse is prevented by Observe: every
// store that loads an index raises its counter to the highest key it found,
// so a lagging counter file can never hand out an id that is already taken.
//
// A Registry owns one Counter per record kind and is safe for concurrent use.
package counter
