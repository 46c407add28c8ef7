package student

import (
	"github.com/ValentinKolb/qmx/lib/common"
	"github.com/ValentinKolb/qmx/lib/counter"
	"github.com/ValentinKolb/qmx/lib/store"
)

// Kind is the record kind name used for files, counters and metrics
const Kind = common.KindStudent

// Database is the store holding all students
type Database = store.Store[Student, *Student]

// NewDatabase creates an empty student store saved to path
func NewDatabase(path string, c *counter.Counter) *Database {
	return store.New[Student](store.Options{Kind: Kind, Path: path, Counter: c})
}

// LoadDatabase loads the student store from path, or creates an empty one
// if the file does not exist
func LoadDatabase(path string, c *counter.Counter) (*Database, error) {
	return store.LoadOrNew[Student](path, store.Options{Kind: Kind, Path: path, Counter: c})
}

// FromJSON decodes a student store
func FromJSON(data []byte, c *counter.Counter) (*Database, error) {
	return store.FromJSON[Student](data, store.Options{Kind: Kind, Counter: c})
}
