// Package testing provides a reusable conformance suite for record kinds
// stored in a store.Store.
//
// A record kind registers its type once in its own tests:
//
//	func TestStore(t *testing.T) {
//		storetesting.RunStoreTests(t, "student", storetesting.Suite[Student, *Student]{
//			NewRecord: func(i int) *Student { ... },
//			Mutate:    func(s *Student) store.MutationResult { ... },
//		})
//	}
//
// The suite covers identifier assignment, CRUD, batch semantics, iteration
// order, serialization round trips and persistence through the file system.
// RunStoreBenchmarks takes the same Suite and measures the store operations.
package testing
