package counter

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/ValentinKolb/qmx/lib/atomicfile"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("counter")

// DefaultBaseline is the value assumed when no counter file exists yet.
// The first id issued from the baseline is DefaultBaseline+1.
const DefaultBaseline uint64 = 0

// Counter is a monotonic uid source whose value can be persisted to a file.
// The zero value is usable as an in-memory counter without a file.
type Counter struct {
	path  string
	value atomic.Uint64
}

// New creates a counter persisted at path. An empty path creates an
// in-memory counter (Load and Persist become no-ops), useful for tests.
func New(path string) *Counter {
	return &Counter{path: path}
}

// Path returns the file the counter is persisted to
func (c *Counter) Path() string {
	return c.path
}

// Next increments the counter and returns the new value.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (c *Counter) Next() uint64 {
	return c.value.Add(1)
}

// Value returns the last issued value
func (c *Counter) Value() uint64 {
	return c.value.Load()
}

// Observe raises the counter to id if id is greater than the current value.
// It never lowers the counter.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
// It uses CompareAndSwap to ensure that the value only increases.
func (c *Counter) Observe(id uint64) {
	for {
		curr := c.value.Load()
		if id <= curr {
			return
		}
		if c.value.CompareAndSwap(curr, id) {
			return
		}
	}
}

// Load reads the persisted value and primes the counter with it.
// A missing file yields DefaultBaseline. The in-memory value is only ever
// raised by Load, never lowered.
func (c *Counter) Load() (uint64, error) {
	if c.path == "" {
		return c.Value(), nil
	}

	content, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debugf("no uid counter at %s, starting from %d", c.path, DefaultBaseline)
		c.Observe(DefaultBaseline)
		return DefaultBaseline, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read uid counter %s: %w", c.path, err)
	}

	value, err := Parse(string(content))
	if err != nil {
		log.Errorf("failed to parse uid counter %s: %v", c.path, err)
		return 0, fmt.Errorf("parse uid counter %s: %w", c.path, err)
	}

	c.Observe(value)
	log.Infof("loaded uid counter %s: %d", c.path, value)
	return value, nil
}

// Persist writes the current value through the atomic file writer
func (c *Counter) Persist() error {
	if c.path == "" {
		return nil
	}

	value := c.Value()
	if err := atomicfile.WriteFile(c.path, []byte(strconv.FormatUint(value, 10)), atomicfile.DefaultPerm); err != nil {
		return fmt.Errorf("persist uid counter %s: %w", c.path, err)
	}

	log.Debugf("persisted uid counter %s: %d", c.path, value)
	return nil
}

// Parse reads a counter value as stored on disk (surrounding whitespace is ignored)
func Parse(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(s), 10, 64)
}
