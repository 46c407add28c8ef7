package counter

import (
	"errors"
	"fmt"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
)

// PathFunc maps a record kind to the file its counter is persisted in
type PathFunc func(kind string) string

// Registry owns one Counter per record kind.
//
// Thread-safety: all methods are safe for concurrent use.
type Registry struct {
	pathFor  PathFunc
	counters *xsync.MapOf[string, *Counter]
}

// NewRegistry creates a registry. A nil pathFor creates in-memory counters.
func NewRegistry(pathFor PathFunc) *Registry {
	return &Registry{
		pathFor:  pathFor,
		counters: xsync.NewMapOf[string, *Counter](),
	}
}

// Get returns the counter of kind, creating it on first use
func (r *Registry) Get(kind string) *Counter {
	c, _ := r.counters.LoadOrCompute(kind, func() *Counter {
		path := ""
		if r.pathFor != nil {
			path = r.pathFor(kind)
		}
		return New(path)
	})
	return c
}

// Kinds returns the registered kinds in sorted order
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, r.counters.Size())
	r.counters.Range(func(kind string, _ *Counter) bool {
		kinds = append(kinds, kind)
		return true
	})
	sort.Strings(kinds)
	return kinds
}

// LoadAll loads every registered counter from disk
func (r *Registry) LoadAll() error {
	var errs []error
	for _, kind := range r.Kinds() {
		if _, err := r.Get(kind).Load(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}

// PersistAll persists every registered counter. All counters are attempted
// even if one fails; the joined error is returned.
func (r *Registry) PersistAll() error {
	var errs []error
	for _, kind := range r.Kinds() {
		if err := r.Get(kind).Persist(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}
