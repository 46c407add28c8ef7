package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ValentinKolb/qmx/lib/atomicfile"
)

// --------------------------------------------------------------------------
// Serialization
// --------------------------------------------------------------------------

// MarshalJSON encodes the store as an object mapping the decimal identifier
// to the record, with keys in ascending identifier order.
func (s *Store[T, P]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encode streams the store to w
func (s *Store[T, P]) encode(w io.Writer) error {
	if _, err := io.WriteString(w, "{"); err != nil {
		return err
	}

	var encErr error
	first := true
	s.index.Ascend(func(e entry[P]) bool {
		value, err := json.Marshal(e.rec)
		if err != nil {
			encErr = fmt.Errorf("encode %s %d: %w", s.kind, e.id, err)
			return false
		}

		var prefix string
		if !first {
			prefix = ","
		}
		first = false

		if _, err := io.WriteString(w, prefix+`"`+strconv.FormatUint(e.id, 10)+`":`); err != nil {
			encErr = err
			return false
		}
		if _, err := w.Write(value); err != nil {
			encErr = err
			return false
		}
		return true
	})
	if encErr != nil {
		return encErr
	}

	_, err := io.WriteString(w, "}")
	return err
}

// JSON returns the serialized store. If encoding fails the failure is logged
// and the empty string is returned, so error text never ends up in an export.
func (s *Store[T, P]) JSON() string {
	data, err := s.MarshalJSON()
	if err != nil {
		log.Errorf("failed to serialize %s store: %v", s.kind, err)
		return ""
	}
	return string(data)
}

// FromJSON decodes a store from its serialized form. The object keys are the
// authoritative identifiers and are bound into the decoded records; the
// counter in opts is raised to the highest key.
func FromJSON[T any, P interface {
	*T
	Entity
}](data []byte, opts Options) (*Store[T, P], error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, WrapError(RetCParseError, err, "decode %s store", opts.Kind)
	}

	s := New[T, P](opts)
	for key, value := range raw {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil || id == 0 {
			return nil, NewError(RetCParseError, fmt.Sprintf("decode %s store: invalid identifier %q", opts.Kind, key))
		}

		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return nil, NewError(RetCParseError, fmt.Sprintf("decode %s store: record %d is null", opts.Kind, id))
		}

		rec := P(new(T))
		if err := json.Unmarshal(value, rec); err != nil {
			return nil, WrapError(RetCParseError, err, "decode %s %d", opts.Kind, id)
		}
		Bind(rec, id)
		s.index.ReplaceOrInsert(entry[P]{id: id, rec: rec})
	}

	s.counter.Observe(s.MaxID())
	s.metrics.loads.Inc()
	return s, nil
}

// --------------------------------------------------------------------------
// Persistence
// --------------------------------------------------------------------------

// Save writes the store to its path through the atomic file writer
func (s *Store[T, P]) Save() error {
	if s.path == "" {
		return NewError(RetCValidation, fmt.Sprintf("%s store has no path", s.kind))
	}
	return s.SaveTo(s.path)
}

// SaveTo writes the store to path through the atomic file writer. The file
// either keeps its previous content or holds the complete new content.
func (s *Store[T, P]) SaveTo(path string) error {
	start := time.Now()
	log.Infof("saving %s store (%d records) to %s", s.kind, s.Len(), path)

	if err := atomicfile.WriteFunc(path, atomicfile.DefaultPerm, s.encode); err != nil {
		s.metrics.saveFails.Inc()
		return WrapError(RetCIOError, err, "save %s store to %s", s.kind, path)
	}

	s.metrics.saves.Inc()
	s.metrics.saveTime.UpdateDuration(start)
	log.Debugf("saved %s store to %s in %s", s.kind, path, time.Since(start))
	return nil
}

// LoadFrom reads a store from path. A missing file yields an error matching
// ErrNotFound, malformed content an error matching ErrParse. The loaded store
// saves back to path unless opts names another one.
func LoadFrom[T any, P interface {
	*T
	Entity
}](path string, opts Options) (*Store[T, P], error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, WrapError(RetCNotFound, err, "%s store %s", opts.Kind, path)
	}
	if err != nil {
		return nil, WrapError(RetCIOError, err, "read %s store %s", opts.Kind, path)
	}

	if opts.Path == "" {
		opts.Path = path
	}
	s, err := FromJSON[T, P](data, opts)
	if err != nil {
		return nil, err
	}

	log.Infof("loaded %s store from %s: %d records, max id %d", s.kind, path, s.Len(), s.MaxID())
	return s, nil
}

// LoadOrNew behaves like LoadFrom but returns an empty store when the file
// does not exist yet
func LoadOrNew[T any, P interface {
	*T
	Entity
}](path string, opts Options) (*Store[T, P], error) {
	s, err := LoadFrom[T, P](path, opts)
	if errors.Is(err, ErrNotFound) {
		log.Infof("no %s store at %s, starting empty", opts.Kind, path)
		if opts.Path == "" {
			opts.Path = path
		}
		return New[T, P](opts), nil
	}
	return s, err
}
