// Package util provides small helper components shared by the record kinds.
//
// The package contains:
//   - statistics: summary statistics over float samples and a SizeHistogram
//     for estimating serialized record sizes without a full encode
//   - duequeue: a key-addressable min-heap used to order installments by due
//     date while still allowing direct removal of a single record
//
// None of the types in this package are safe for concurrent use unless noted
// otherwise on the type.
package util
