package common

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// DefaultDataDir is the directory used when no data dir is configured
	DefaultDataDir = "data"

	// KindStudent and KindCash are the record kinds persisted by qmx.
	// They name the files <kind>_database.json and <kind>_uid_counter.
	KindStudent = "student"
	KindCash    = "cash"
)

// Config holds all configuration parameters for a qmx database.
type Config struct {
	// DataDir is the directory holding all database and counter files
	DataDir string

	// AutoSave persists the database after every mutating manager call
	AutoSave bool

	// Logging configuration
	LogLevel string
}

// DefaultConfig returns the configuration used when nothing else is set
func DefaultConfig() Config {
	return Config{
		DataDir:  DefaultDataDir,
		AutoSave: false,
		LogLevel: "info",
	}
}

// DatabasePath returns the path of the database file for a record kind
func (c *Config) DatabasePath(kind string) string {
	return filepath.Join(c.dataDir(), kind+"_database.json")
}

// CounterPath returns the path of the uid counter file for a record kind
func (c *Config) CounterPath(kind string) string {
	return filepath.Join(c.dataDir(), kind+"_uid_counter")
}

func (c *Config) dataDir() string {
	if c.DataDir == "" {
		return DefaultDataDir
	}
	return c.DataDir
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Storage")
	addField("Data Directory", c.dataDir())
	addField("Auto Save", fmt.Sprintf("%t", c.AutoSave))

	addSection("Files")
	for _, kind := range []string{KindStudent, KindCash} {
		addField(kind+" database", c.DatabasePath(kind))
		addField(kind+" counter", c.CounterPath(kind))
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
