//go:build windows

package atomicfile

// syncDir is a no-op on windows, directories can not be opened for syncing there.
func syncDir(dir string) error {
	log.Debugf("directory sync skipped for %s (unsupported on windows)", dir)
	return nil
}
