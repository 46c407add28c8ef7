package store_test

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/qmx/lib/store"
	storetesting "github.com/ValentinKolb/qmx/lib/store/testing"
)

type document struct {
	store.Identity
	Title    string            `json:"title"`
	Revision int               `json:"revision"`
	Labels   map[string]string `json:"labels,omitempty"`
}

var documentSuite = storetesting.Suite[document, *document]{
	NewRecord: func(i int) *document {
		return &document{
			Title:  fmt.Sprintf("doc-%d", i),
			Labels: map[string]string{"seed": fmt.Sprint(i)},
		}
	},
	Mutate: func(d *document) store.MutationResult {
		d.Revision++
		return store.Applied
	},
}

func TestStoreConformance(t *testing.T) {
	storetesting.RunStoreTests(t, "document", documentSuite)
}

func BenchmarkStore(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "document", documentSuite)
}
