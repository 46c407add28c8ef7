package cash

import (
	"time"

	"github.com/ValentinKolb/qmx/lib/common"
	"github.com/ValentinKolb/qmx/lib/counter"
	"github.com/ValentinKolb/qmx/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("cash")

// Kind is the record kind name used for files, counters and metrics
const Kind = common.KindCash

// Database is the cash store together with the installment engine
type Database struct {
	*store.Store[Cash, *Cash]

	// Now returns the current time; records created by the engine use it
	Now func() time.Time
}

// Wrap adds the installment engine to an existing cash store
func Wrap(s *store.Store[Cash, *Cash]) *Database {
	return &Database{
		Store: s,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// NewDatabase creates an empty cash database saved to path
func NewDatabase(path string, c *counter.Counter) *Database {
	return Wrap(store.New[Cash](store.Options{Kind: Kind, Path: path, Counter: c}))
}

// LoadDatabase loads the cash database from path, or creates an empty one
// if the file does not exist
func LoadDatabase(path string, c *counter.Counter) (*Database, error) {
	s, err := store.LoadOrNew[Cash](path, store.Options{Kind: Kind, Path: path, Counter: c})
	if err != nil {
		return nil, err
	}
	return Wrap(s), nil
}

// FromJSON decodes a cash database
func FromJSON(data []byte, c *counter.Counter) (*Database, error) {
	s, err := store.FromJSON[Cash](data, store.Options{Kind: Kind, Counter: c})
	if err != nil {
		return nil, err
	}
	return Wrap(s), nil
}

// Insert adds c to the store. An installment without a plan id starts a new
// plan identified by the record's own identifier. An explicit plan id is
// taken as given; validate it with CheckInstallment first.
func (db *Database) Insert(c *Cash) uint64 {
	id := db.Store.Insert(c)
	if c.Installment != nil && c.Installment.PlanID == 0 {
		c.Installment.PlanID = id
		log.Debugf("cash %d starts installment plan %d", id, id)
	}
	return id
}

// InsertBatch inserts every record and returns the number inserted
func (db *Database) InsertBatch(recs []*Cash) int {
	for _, c := range recs {
		db.Insert(c)
	}
	return len(recs)
}

// ForStudent returns all records linked to studentID
func (db *Database) ForStudent(studentID uint64) []*Cash {
	return db.Filter(func(c *Cash) bool { return c.BelongsTo(studentID) })
}
