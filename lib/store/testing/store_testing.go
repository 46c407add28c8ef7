package testing

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ValentinKolb/qmx/lib/counter"
	"github.com/ValentinKolb/qmx/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Suite describes the record kind under test
type Suite[T any, P interface {
	*T
	store.Entity
}] struct {
	// NewRecord returns a new, unbound record. Records for different i must
	// differ, and every record must compare equal to itself after a JSON
	// round trip (use UTC times without monotonic readings).
	NewRecord func(i int) P
	// Mutate changes rec and returns store.Applied, or returns store.Skipped
	// without changing it.
	Mutate func(rec P) store.MutationResult
}

// RunStoreTests runs the conformance suite for one record kind
func RunStoreTests[T any, P interface {
	*T
	store.Entity
}](t *testing.T, kind string, suite Suite[T, P]) {
	newStore := func(t *testing.T) *store.Store[T, P] {
		return store.New[T, P](store.Options{
			Kind: kind,
			Path: filepath.Join(t.TempDir(), kind+"_database.json"),
		})
	}

	t.Run(kind, func(t *testing.T) {
		t.Run("InsertAssignsIncreasingIDs", func(t *testing.T) {
			testInsertAssignsIncreasingIDs(t, newStore(t), suite)
		})

		t.Run("ConcurrentInsert", func(t *testing.T) {
			testConcurrentInsert(t, newStore(t), suite)
		})

		t.Run("Get", func(t *testing.T) {
			testGet(t, newStore(t), suite)
		})

		t.Run("NoReuseAfterRemove", func(t *testing.T) {
			testNoReuseAfterRemove(t, newStore(t), suite)
		})

		t.Run("UpdateBatch", func(t *testing.T) {
			testUpdateBatch(t, newStore(t), suite)
		})

		t.Run("RemoveBatch", func(t *testing.T) {
			testRemoveBatch(t, newStore(t), suite)
		})

		t.Run("Iteration", func(t *testing.T) {
			testIteration(t, newStore(t), suite)
		})

		t.Run("JSONRoundTrip", func(t *testing.T) {
			testJSONRoundTrip(t, newStore(t), kind, suite)
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, newStore(t), kind, suite)
		})

		t.Run("LoadRaisesCounter", func(t *testing.T) {
			testLoadRaisesCounter(t, newStore(t), kind, suite)
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, newStore(t), kind, suite)
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testInsertAssignsIncreasingIDs[T any, P interface {
	*T
	store.Entity
}](t *testing.T, s *store.Store[T, P], suite Suite[T, P]) {
	var last uint64
	for i := 0; i < 50; i++ {
		rec := suite.NewRecord(i)
		id := s.Insert(rec)
		require.Greater(t, id, last, "ids must be strictly increasing")
		assert.Equal(t, id, rec.UID(), "inserted record carries its id")
		last = id
	}
	assert.Equal(t, 50, s.Len())
	assert.Equal(t, last, s.MaxID())
}

func testConcurrentInsert[T any, P interface {
	*T
	store.Entity
}](t *testing.T, s *store.Store[T, P], suite Suite[T, P]) {
	const workers = 8
	const perWorker = 100

	var mu sync.Mutex
	var wg sync.WaitGroup
	ids := make([][]uint64, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				rec := suite.NewRecord(w*perWorker + i)
				mu.Lock()
				ids[w] = append(ids[w], s.Insert(rec))
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[uint64]struct{}, workers*perWorker)
	for _, workerIDs := range ids {
		for i, id := range workerIDs {
			_, dup := seen[id]
			require.False(t, dup, "duplicate id %d", id)
			seen[id] = struct{}{}
			if i > 0 {
				require.Greater(t, id, workerIDs[i-1], "ids must increase in issuance order")
			}
		}
	}
	assert.Equal(t, workers*perWorker, s.Len())
}

func testGet[T any, P interface {
	*T
	store.Entity
}](t *testing.T, s *store.Store[T, P], suite Suite[T, P]) {
	rec := suite.NewRecord(1)
	id := s.Insert(rec)

	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, rec, got)
	assert.True(t, s.Has(id))

	_, ok = s.Get(id + 1000)
	assert.False(t, ok)
	assert.False(t, s.Has(id+1000))
}

func testNoReuseAfterRemove[T any, P interface {
	*T
	store.Entity
}](t *testing.T, s *store.Store[T, P], suite Suite[T, P]) {
	first := s.Insert(suite.NewRecord(1))
	removed, ok := s.Remove(first)
	require.True(t, ok)
	assert.Equal(t, first, removed.UID())
	assert.True(t, s.IsEmpty())

	second := s.Insert(suite.NewRecord(2))
	assert.NotEqual(t, first, second)
	assert.Greater(t, second, first)

	_, ok = s.Remove(first)
	assert.False(t, ok, "removing twice must report absence")
}

func testUpdateBatch[T any, P interface {
	*T
	store.Entity
}](t *testing.T, s *store.Store[T, P], suite Suite[T, P]) {
	a := s.Insert(suite.NewRecord(1))
	b := s.Insert(suite.NewRecord(2))
	c := s.Insert(suite.NewRecord(3))

	calls := 0
	count := s.UpdateBatch([]uint64{a, b, c, 9999}, func(rec P) store.MutationResult {
		calls++
		if rec.UID() == b {
			return store.Skipped
		}
		return suite.Mutate(rec)
	})

	assert.Equal(t, 2, count, "only applied mutations count")
	assert.Equal(t, 3, calls, "absent ids never reach the callback")

	assert.Equal(t, store.NotFound, s.Update(9999, suite.Mutate))

	// ids survive mutation
	for _, id := range []uint64{a, b, c} {
		rec, ok := s.Get(id)
		require.True(t, ok)
		assert.Equal(t, id, rec.UID())
	}
}

func testRemoveBatch[T any, P interface {
	*T
	store.Entity
}](t *testing.T, s *store.Store[T, P], suite Suite[T, P]) {
	existing := s.Insert(suite.NewRecord(1))
	kept := s.Insert(suite.NewRecord(2))

	assert.Equal(t, 1, s.RemoveBatch([]uint64{existing, 424242}))
	assert.False(t, s.Has(existing))
	assert.True(t, s.Has(kept))
	assert.Equal(t, 0, s.RemoveBatch(nil))
}

func testIteration[T any, P interface {
	*T
	store.Entity
}](t *testing.T, s *store.Store[T, P], suite Suite[T, P]) {
	for i := 0; i < 20; i++ {
		s.Insert(suite.NewRecord(i))
	}
	s.RemoveBatch([]uint64{3, 7, 11})

	collect := func() []uint64 {
		var ids []uint64
		for id, rec := range s.All() {
			require.Equal(t, id, rec.UID(), "key must equal the embedded id")
			ids = append(ids, id)
		}
		return ids
	}

	first := collect()
	assert.Len(t, first, 17)
	assert.IsIncreasing(t, first)
	assert.Equal(t, first, collect(), "iteration must be restartable")

	// early termination
	n := 0
	for range s.All() {
		n++
		if n == 5 {
			break
		}
	}
	assert.Equal(t, 5, n)

	even := s.Filter(func(rec P) bool { return rec.UID()%2 == 0 })
	for _, rec := range even {
		assert.Zero(t, rec.UID()%2)
	}
}

func testJSONRoundTrip[T any, P interface {
	*T
	store.Entity
}](t *testing.T, s *store.Store[T, P], kind string, suite Suite[T, P]) {
	for i := 0; i < 12; i++ {
		s.Insert(suite.NewRecord(i))
	}

	text := s.JSON()
	require.NotEmpty(t, text)

	// keys are ordered numerically, not lexically
	assert.Less(t, strings.Index(text, `"2":`), strings.Index(text, `"10":`))

	decoded, err := store.FromJSON[T, P]([]byte(text), store.Options{Kind: kind})
	require.NoError(t, err)
	require.Equal(t, s.Len(), decoded.Len())

	for id, rec := range s.All() {
		got, ok := decoded.Get(id)
		require.True(t, ok, "record %d missing after round trip", id)
		assert.Equal(t, rec, got)
	}

	_, err = store.FromJSON[T, P]([]byte("{not json"), store.Options{Kind: kind})
	assert.True(t, errors.Is(err, store.ErrParse), "got %v", err)

	_, err = store.FromJSON[T, P]([]byte(`{"abc":{}}`), store.Options{Kind: kind})
	assert.True(t, errors.Is(err, store.ErrParse), "got %v", err)
}

func testSaveLoad[T any, P interface {
	*T
	store.Entity
}](t *testing.T, s *store.Store[T, P], kind string, suite Suite[T, P]) {
	for i := 0; i < 10; i++ {
		s.Insert(suite.NewRecord(i))
	}
	require.NoError(t, s.Save())

	loaded, err := store.LoadFrom[T, P](s.Path(), store.Options{Kind: kind})
	require.NoError(t, err)
	assert.Equal(t, s.Path(), loaded.Path())
	assert.Equal(t, s.JSON(), loaded.JSON())

	missing := filepath.Join(t.TempDir(), "missing.json")
	_, err = store.LoadFrom[T, P](missing, store.Options{Kind: kind})
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
	assert.False(t, errors.Is(err, store.ErrParse))

	fresh, err := store.LoadOrNew[T, P](missing, store.Options{Kind: kind})
	require.NoError(t, err)
	assert.True(t, fresh.IsEmpty())
	assert.Equal(t, missing, fresh.Path())
}

func testLoadRaisesCounter[T any, P interface {
	*T
	store.Entity
}](t *testing.T, s *store.Store[T, P], kind string, suite Suite[T, P]) {
	for i := 0; i < 5; i++ {
		s.Insert(suite.NewRecord(i))
	}
	require.NoError(t, s.Save())

	// a counter that lost all increments since the last persist
	lagging := counter.New("")
	loaded, err := store.LoadFrom[T, P](s.Path(), store.Options{Kind: kind, Counter: lagging})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), lagging.Value())

	id := loaded.Insert(suite.NewRecord(99))
	assert.Equal(t, uint64(6), id)
}

func testEdgeCases[T any, P interface {
	*T
	store.Entity
}](t *testing.T, s *store.Store[T, P], kind string, suite Suite[T, P]) {
	t.Run("EmptyStore", func(t *testing.T) {
		assert.True(t, s.IsEmpty())
		assert.Equal(t, uint64(0), s.MaxID())
		assert.Equal(t, "{}", s.JSON())

		decoded, err := store.FromJSON[T, P]([]byte("{}"), store.Options{Kind: kind})
		require.NoError(t, err)
		assert.True(t, decoded.IsEmpty())
	})

	t.Run("BoundInsertKeepsID", func(t *testing.T) {
		rec := suite.NewRecord(1)
		store.Bind(rec, 40)
		assert.Equal(t, uint64(40), s.Insert(rec))
		assert.Greater(t, s.Insert(suite.NewRecord(2)), uint64(40))
	})

	t.Run("SaveWithoutPath", func(t *testing.T) {
		mem := store.New[T, P](store.Options{Kind: kind})
		err := mem.Save()
		assert.True(t, errors.Is(err, store.ErrValidation), "got %v", err)
	})

	t.Run("Info", func(t *testing.T) {
		info := s.Info()
		assert.Equal(t, kind, info.Kind)
		assert.Equal(t, s.Len(), info.Records)
		assert.Equal(t, s.MaxID(), info.MaxID)
		assert.Greater(t, info.SizeBytes, 0, fmt.Sprintf("%+v", info))
	})
}
