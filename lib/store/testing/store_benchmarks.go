package testing

import (
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/qmx/lib/store"
)

// RunStoreBenchmarks runs all benchmarks for one record kind. Stores are
// single-writer, so every benchmark runs on one goroutine.
func RunStoreBenchmarks[T any, P interface {
	*T
	store.Entity
}](b *testing.B, kind string, suite Suite[T, P]) {
	newStore := func(b *testing.B) *store.Store[T, P] {
		return store.New[T, P](store.Options{
			Kind: kind,
			Path: filepath.Join(b.TempDir(), kind+"_database.json"),
		})
	}

	b.Run("Insert", func(b *testing.B) {
		benchmarkInsert(b, newStore(b), suite)
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, newStore(b), suite)
	})

	b.Run("Update", func(b *testing.B) {
		benchmarkUpdate(b, newStore(b), suite)
	})

	b.Run("Remove", func(b *testing.B) {
		benchmarkRemove(b, newStore(b), suite)
	})

	b.Run("Filter", func(b *testing.B) {
		benchmarkFilter(b, newStore(b), suite)
	})

	b.Run("SaveLoad", func(b *testing.B) {
		benchmarkSaveLoad(b, newStore(b), suite)
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// fill inserts n records and returns their identifiers
func fill[T any, P interface {
	*T
	store.Entity
}](s *store.Store[T, P], suite Suite[T, P], n int) []uint64 {
	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = s.Insert(suite.NewRecord(i))
	}
	return ids
}

func benchmarkInsert[T any, P interface {
	*T
	store.Entity
}](b *testing.B, s *store.Store[T, P], suite Suite[T, P]) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Insert(suite.NewRecord(i))
	}
}

func benchmarkGet[T any, P interface {
	*T
	store.Entity
}](b *testing.B, s *store.Store[T, P], suite Suite[T, P]) {
	ids := fill(s, suite, 10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Get(ids[i%len(ids)])
	}
}

func benchmarkUpdate[T any, P interface {
	*T
	store.Entity
}](b *testing.B, s *store.Store[T, P], suite Suite[T, P]) {
	ids := fill(s, suite, 10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Update(ids[i%len(ids)], suite.Mutate)
	}
}

func benchmarkRemove[T any, P interface {
	*T
	store.Entity
}](b *testing.B, s *store.Store[T, P], suite Suite[T, P]) {
	ids := fill(s, suite, min(b.N, 100000))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// once every id is gone the store reports absent ids
		s.Remove(ids[i%len(ids)])
	}
}

func benchmarkFilter[T any, P interface {
	*T
	store.Entity
}](b *testing.B, s *store.Store[T, P], suite Suite[T, P]) {
	fill(s, suite, 10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Filter(func(rec P) bool { return rec.UID()%7 == 0 })
	}
}

func benchmarkSaveLoad[T any, P interface {
	*T
	store.Entity
}](b *testing.B, s *store.Store[T, P], suite Suite[T, P]) {
	fill(s, suite, 10000)

	b.Run("Save", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := s.Save(); err != nil {
				b.Fatal(err)
			}
		}
	})

	data, err := s.MarshalJSON()
	if err != nil {
		b.Fatal(err)
	}

	b.Run("Load", func(b *testing.B) {
		b.SetBytes(int64(len(data)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := store.FromJSON[T, P](data, store.Options{Kind: s.Kind()}); err != nil {
				b.Fatal(err)
			}
		}
	})
}
