// Package pbfs ("psbackup filesystem") collects the primitive filesystem
// operations the core requires: atomic sidecar writes, recursive directory
// listing, hard-link creation, byte-equality comparison, and an advisory
// repository lock.
package pbfs

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteFileAtomic writes data to path by first writing to a temporary file
// in the same directory and then renaming it into place, so a reader never
// observes a partially written sidecar.
func WriteFileAtomic(path string, data []byte, permissions os.FileMode) error {
	dirname, basename := filepath.Split(path)
	if dirname == "" {
		dirname = "."
	}

	temporary, err := os.CreateTemp(dirname, basename)
	if err != nil {
		return errors.Wrap(err, "unable to create temporary file")
	}

	if _, err = temporary.Write(data); err != nil {
		temporary.Close()
		os.Remove(temporary.Name())
		return errors.Wrap(err, "unable to write data to temporary file")
	}

	if err = temporary.Close(); err != nil {
		os.Remove(temporary.Name())
		return errors.Wrap(err, "unable to close temporary file")
	}

	if err = os.Chmod(temporary.Name(), permissions); err != nil {
		os.Remove(temporary.Name())
		return errors.Wrap(err, "unable to change file permissions")
	}

	if err = os.Rename(temporary.Name(), path); err != nil {
		os.Remove(temporary.Name())
		return errors.Wrap(err, "unable to rename file into place")
	}

	return nil
}
