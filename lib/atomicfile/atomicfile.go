package atomicfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("atomicfile")

// DefaultPerm is the permission used for files written by qmx
const DefaultPerm os.FileMode = 0o644

// --------------------------------------------------------------------------
// Error Type
// --------------------------------------------------------------------------

// Error describes which step of an atomic write failed.
// It unwraps to the underlying os / io error.
type Error struct {
	Op   string // mkdir, create, write, flush, sync, close, rename
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("atomic write (%s) %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// --------------------------------------------------------------------------
// Hooks (replaced in tests to simulate crashes and failing disks)
// --------------------------------------------------------------------------

type fsHooks struct {
	syncFile func(f *os.File) error
	rename   func(oldPath, newPath string) error
	syncDir  func(dir string) error
}

var hooks = fsHooks{
	syncFile: func(f *os.File) error { return f.Sync() },
	rename:   os.Rename,
	syncDir:  syncDir,
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// WriteFile atomically replaces the content of path with data.
// Missing parent directories are created.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	return WriteFunc(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteFunc atomically replaces the content of path with whatever write
// produces. The writer passed to write is buffered; it is flushed and synced
// before the file is renamed into place. If write returns an error the
// target is not touched.
func WriteFunc(path string, perm os.FileMode, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &Error{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &Error{Op: "create", Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	// until the rename succeeded the temp file is ours to clean up
	closed, renamed := false, false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		if !renamed {
			if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
				log.Warningf("could not remove temp file %s: %v", tmpPath, rmErr)
			}
		}
	}()

	bw := bufio.NewWriterSize(tmp, 64*1024)
	if err := write(bw); err != nil {
		return &Error{Op: "write", Path: tmpPath, Err: err}
	}
	if err := bw.Flush(); err != nil {
		return &Error{Op: "flush", Path: tmpPath, Err: err}
	}
	if err := tmp.Chmod(perm); err != nil {
		log.Debugf("chmod %s not supported: %v", tmpPath, err)
	}
	if err := hooks.syncFile(tmp); err != nil {
		return &Error{Op: "sync", Path: tmpPath, Err: err}
	}

	closed = true
	if err := tmp.Close(); err != nil {
		return &Error{Op: "close", Path: tmpPath, Err: err}
	}

	if err := hooks.rename(tmpPath, path); err != nil {
		return &Error{Op: "rename", Path: path, Err: err}
	}
	renamed = true

	// the new content is in place, a failing directory sync only weakens durability
	if err := hooks.syncDir(dir); err != nil {
		log.Warningf("directory sync of %s failed: %v", dir, err)
	}

	log.Debugf("atomically wrote %s", path)
	return nil
}
