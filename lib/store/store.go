package store

import (
	"iter"

	"github.com/ValentinKolb/qmx/lib/counter"
	"github.com/google/btree"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("store")

// btreeDegree is the branching factor of the index
const btreeDegree = 32

// Options configure a Store
type Options struct {
	// Kind names the record kind, e.g. "student". It labels metrics and logs.
	Kind string
	// Path is the file Save writes to. May be empty for in-memory stores.
	Path string
	// Counter issues identifiers for new records. A nil counter is replaced
	// by an in-memory one.
	Counter *counter.Counter
}

type entry[P any] struct {
	id  uint64
	rec P
}

func lessEntry[P any](a, b entry[P]) bool {
	return a.id < b.id
}

// Store is an ordered in-memory index of records keyed by identifier.
// T is the record type and P its pointer type, which must implement Entity
// (by embedding Identity in T).
//
// Thread-safety: a Store is not synchronized. Concurrent reads are safe with
// each other; any mutation must be serialized against all other access by
// the caller.
type Store[T any, P interface {
	*T
	Entity
}] struct {
	kind    string
	path    string
	counter *counter.Counter
	index   *btree.BTreeG[entry[P]]
	metrics *storeMetrics
}

// New creates an empty store
func New[T any, P interface {
	*T
	Entity
}](opts Options) *Store[T, P] {
	c := opts.Counter
	if c == nil {
		c = counter.New("")
	}
	return &Store[T, P]{
		kind:    opts.Kind,
		path:    opts.Path,
		counter: c,
		index:   btree.NewG[entry[P]](btreeDegree, lessEntry[P]),
		metrics: newStoreMetrics(opts.Kind),
	}
}

// Kind returns the record kind of the store
func (s *Store[T, P]) Kind() string { return s.kind }

// Path returns the file Save writes to
func (s *Store[T, P]) Path() string { return s.path }

// Counter returns the identifier source of the store
func (s *Store[T, P]) Counter() *counter.Counter { return s.counter }

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Insert adds rec to the store and returns its identifier. A record without
// an identifier gets the next value of the counter. A record that was bound
// with Bind keeps its identifier, replaces any record stored under it, and
// raises the counter so that the identifier is never issued again.
func (s *Store[T, P]) Insert(rec P) uint64 {
	id := rec.UID()
	if id == 0 {
		id = s.counter.Next()
		rec.identity().uid = id
	} else {
		s.counter.Observe(id)
	}

	if _, replaced := s.index.ReplaceOrInsert(entry[P]{id: id, rec: rec}); replaced {
		log.Debugf("%s %d replaced by bound record", s.kind, id)
	}
	s.metrics.inserts.Inc()
	return id
}

// InsertBatch inserts every record and returns the number inserted
func (s *Store[T, P]) InsertBatch(recs []P) int {
	for _, rec := range recs {
		s.Insert(rec)
	}
	log.Debugf("batch inserted %d %s records", len(recs), s.kind)
	return len(recs)
}

// Update applies fn to the record stored under id. The store returns
// NotFound for absent ids without calling fn.
func (s *Store[T, P]) Update(id uint64, fn func(P) MutationResult) MutationResult {
	e, ok := s.index.Get(entry[P]{id: id})
	if !ok {
		return NotFound
	}

	res := fn(e.rec)
	if e.rec.UID() != id {
		// the callback rebound the record, put the key back
		log.Errorf("%s %d: mutation changed the record identifier to %d, reverting", s.kind, id, e.rec.UID())
		e.rec.identity().uid = id
		return Skipped
	}

	if res == Applied {
		s.metrics.updates.Inc()
	}
	return res
}

// UpdateBatch applies fn to every record in ids and returns the number of
// Applied results. Absent ids and Skipped records are counted out without
// aborting the batch.
func (s *Store[T, P]) UpdateBatch(ids []uint64, fn func(P) MutationResult) int {
	applied, skipped, missing := 0, 0, 0
	for _, id := range ids {
		switch s.Update(id, fn) {
		case Applied:
			applied++
		case Skipped:
			skipped++
		case NotFound:
			missing++
		}
	}
	if skipped > 0 || missing > 0 {
		log.Debugf("batch update of %s: %d applied, %d skipped, %d not found", s.kind, applied, skipped, missing)
	}
	return applied
}

// Remove deletes the record stored under id and returns it
func (s *Store[T, P]) Remove(id uint64) (P, bool) {
	e, ok := s.index.Delete(entry[P]{id: id})
	if !ok {
		return nil, false
	}
	s.metrics.removes.Inc()
	return e.rec, true
}

// RemoveBatch deletes every record in ids and returns the number removed.
// Absent ids are ignored.
func (s *Store[T, P]) RemoveBatch(ids []uint64) int {
	removed := 0
	for _, id := range ids {
		if _, ok := s.Remove(id); ok {
			removed++
		}
	}
	log.Debugf("batch removed %d of %d %s records", removed, len(ids), s.kind)
	return removed
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

// Get returns the record stored under id. The record is owned by the store:
// callers must not modify it and should clone what they keep.
func (s *Store[T, P]) Get(id uint64) (P, bool) {
	e, ok := s.index.Get(entry[P]{id: id})
	if !ok {
		return nil, false
	}
	return e.rec, true
}

// Has reports whether a record is stored under id
func (s *Store[T, P]) Has(id uint64) bool {
	return s.index.Has(entry[P]{id: id})
}

// All returns a sequence of all records in ascending identifier order. The
// sequence is lazy and can be ranged over any number of times; it must not
// be ranged over while the store is mutated.
func (s *Store[T, P]) All() iter.Seq2[uint64, P] {
	return func(yield func(uint64, P) bool) {
		s.index.Ascend(func(e entry[P]) bool {
			return yield(e.id, e.rec)
		})
	}
}

// Filter returns all records matching pred in ascending identifier order
func (s *Store[T, P]) Filter(pred func(P) bool) []P {
	var out []P
	for _, rec := range s.All() {
		if pred(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Len returns the number of records
func (s *Store[T, P]) Len() int {
	return s.index.Len()
}

// IsEmpty reports whether the store holds no records
func (s *Store[T, P]) IsEmpty() bool {
	return s.index.Len() == 0
}

// MaxID returns the highest identifier in the store, or 0 when empty
func (s *Store[T, P]) MaxID() uint64 {
	e, ok := s.index.Max()
	if !ok {
		return 0
	}
	return e.id
}
