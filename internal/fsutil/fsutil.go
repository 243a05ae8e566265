// Package fsutil holds small file helpers shared by the config and ui state stores.
package fsutil

import (
	"errors"
	"os"
	"path/filepath"
)

// AtomicWriteFile writes b to path through a temp file in the same dir and a rename,
// so readers see either the old or the new content.
func AtomicWriteFile(path string, b []byte, perm os.FileMode) error {
	path = filepath.Clean(path)
	if path == "" || path == "." {
		return errors.New("atomic write: missing path")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(perm); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
