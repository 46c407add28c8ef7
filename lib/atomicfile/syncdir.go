//go:build !windows

package atomicfile

import (
	"errors"
	"os"
	"syscall"
)

// syncDir fsyncs a directory so that a rename inside it survives power loss.
// Filesystems that cannot sync directories report EINVAL or ENOTSUP, those
// are not treated as errors.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Sync(); err != nil {
		if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTSUP) {
			log.Debugf("directory sync not supported for %s: %v", dir, err)
			return nil
		}
		return err
	}
	return nil
}
