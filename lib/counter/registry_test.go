package counter

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetReturnsSameCounter(t *testing.T) {
	r := NewRegistry(nil)

	var wg sync.WaitGroup
	counters := make([]*Counter, 8)
	for i := range counters {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			counters[i] = r.Get("student")
		}(i)
	}
	wg.Wait()

	for _, c := range counters {
		assert.Same(t, counters[0], c)
	}
	assert.Equal(t, []string{"student"}, r.Kinds())
}

func TestRegistryPersistAndLoadAll(t *testing.T) {
	dir := t.TempDir()
	pathFor := func(kind string) string {
		return filepath.Join(dir, kind+"_uid_counter")
	}

	r := NewRegistry(pathFor)
	r.Get("student").Observe(4)
	r.Get("cash").Observe(9)
	require.NoError(t, r.PersistAll())

	reloaded := NewRegistry(pathFor)
	reloaded.Get("student")
	reloaded.Get("cash")
	require.NoError(t, reloaded.LoadAll())

	assert.Equal(t, uint64(4), reloaded.Get("student").Value())
	assert.Equal(t, uint64(9), reloaded.Get("cash").Value())
	assert.Equal(t, []string{"cash", "student"}, reloaded.Kinds())
}
