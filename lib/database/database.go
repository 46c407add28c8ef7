package database

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/qmx/lib/cash"
	"github.com/ValentinKolb/qmx/lib/common"
	"github.com/ValentinKolb/qmx/lib/counter"
	"github.com/ValentinKolb/qmx/lib/store"
	"github.com/ValentinKolb/qmx/lib/student"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("database")

// Database owns one store per record kind and the counter registry
type Database struct {
	config   common.Config
	Counters *counter.Registry
	Student  *student.Database
	Cash     *cash.Database
}

// New creates an empty database for cfg without touching the file system
func New(cfg common.Config) *Database {
	counters := counter.NewRegistry(cfg.CounterPath)
	return &Database{
		config:   cfg,
		Counters: counters,
		Student:  student.NewDatabase(cfg.DatabasePath(common.KindStudent), counters.Get(common.KindStudent)),
		Cash:     cash.NewDatabase(cfg.DatabasePath(common.KindCash), counters.Get(common.KindCash)),
	}
}

// Open loads the database of cfg.DataDir. Missing files yield empty stores
// and counters at their baseline.
func Open(cfg common.Config) (*Database, error) {
	counters := counter.NewRegistry(cfg.CounterPath)
	studentCounter := counters.Get(common.KindStudent)
	cashCounter := counters.Get(common.KindCash)

	if err := counters.LoadAll(); err != nil {
		return nil, fmt.Errorf("load uid counters: %w", err)
	}

	students, err := student.LoadDatabase(cfg.DatabasePath(common.KindStudent), studentCounter)
	if err != nil {
		return nil, fmt.Errorf("load student database: %w", err)
	}

	cashDB, err := cash.LoadDatabase(cfg.DatabasePath(common.KindCash), cashCounter)
	if err != nil {
		return nil, fmt.Errorf("load cash database: %w", err)
	}

	log.Infof("opened database in %s: %d students, %d cash records", cfg.DataDir, students.Len(), cashDB.Len())
	return &Database{
		config:   cfg,
		Counters: counters,
		Student:  students,
		Cash:     cashDB,
	}, nil
}

// Config returns the configuration the database was opened with
func (db *Database) Config() common.Config {
	return db.config
}

// Save persists all counters, then all stores. Every file is attempted even
// if an earlier one fails; the returned error joins all failures.
func (db *Database) Save() error {
	var errs []error
	if err := db.Counters.PersistAll(); err != nil {
		errs = append(errs, fmt.Errorf("persist uid counters: %w", err))
	}
	if err := db.Student.Save(); err != nil {
		errs = append(errs, fmt.Errorf("save student database: %w", err))
	}
	if err := db.Cash.Save(); err != nil {
		errs = append(errs, fmt.Errorf("save cash database: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		log.Errorf("saving database failed: %v", err)
		return err
	}
	log.Debugf("saved database to %s", db.config.DataDir)
	return nil
}

// Info returns the store metadata of every record kind
func (db *Database) Info() []store.Info {
	return []store.Info{db.Student.Info(), db.Cash.Info()}
}
