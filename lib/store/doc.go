// Package store provides a generic, ordered in-memory record store with
// crash-consistent persistence to a single JSON file.
//
// Key Components:
//
//   - Store: an index from identifier to record backed by a B-tree, so that
//     iteration and the serialized form are always in ascending identifier
//     order. One implementation serves every record kind; kinds only supply
//     their record type.
//
//   - Identity and Bind: records embed Identity to become storable. The
//     identifier can only be set by the store on Insert, or by Bind, which is
//     reserved for deserialization and migration.
//
//   - Counters: every store draws identifiers from a counter.Counter passed
//     in at construction. Loading a store raises the counter to the highest
//     identifier on disk, so identifiers are never reused even if the counter
//     file lags behind.
//
//   - Error System: structured errors with a RetCode (IOError, ParseError,
//     NotFound, Validation). Use errors.Is with ErrIO, ErrParse, ErrNotFound
//     or ErrValidation to branch on the kind of failure.
//
// File format: a JSON object mapping the decimal identifier to the record
// object, for example {"1":{"name":"a"},"2":{"name":"b"}}. Files are written
// through the atomicfile package.
//
// A Store is not synchronized; see the Store type for the exact rules.
// The testing subpackage contains a conformance suite that every record kind
// runs against its own type.
package store
