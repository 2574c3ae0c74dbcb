package pbfs

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
)

// CopyAttributes describes the file attributes that a copy must reproduce,
// per spec.md §4.5 copy semantics.
type CopyAttributes struct {
	LastWriteTimeUTC time.Time
	LastAccessTimeUTC time.Time
	CreationTimeUTC  time.Time
	ReadOnly         bool
	Hidden           bool
}

// CopyFileContent copies the bytes of src into dst, creating dst (and its
// parent directory, if missing) as needed. It does not set any attributes;
// callers apply CopyAttributes afterward via ApplyAttributes.
func CopyFileContent(src, dst string) (int64, error) {
	source, err := os.Open(src)
	if err != nil {
		return 0, errors.Wrap(err, "unable to open source file")
	}
	defer source.Close()

	if err := os.MkdirAll(parentDir(dst), 0755); err != nil {
		return 0, errors.Wrap(err, "unable to create destination directory")
	}

	destination, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, errors.Wrap(err, "unable to create destination file")
	}

	written, err := io.Copy(destination, source)
	if err != nil {
		destination.Close()
		return written, errors.Wrap(err, "unable to copy file content")
	}
	if err := destination.Close(); err != nil {
		return written, errors.Wrap(err, "unable to close destination file")
	}

	return written, nil
}

// ApplyAttributes reproduces last-write time, last-access time, creation
// time, the read-only attribute, and the Hidden attribute on path. Ordinary
// copy primitives (like CopyFileContent) don't preserve creation time, so it
// is fixed up here explicitly; if the file must end up read-only, the
// read-only bit is cleared first, the timestamp is set, and the bit is
// restored last, exactly in the order spec.md §4.5 mandates.
func ApplyAttributes(path string, attrs CopyAttributes) error {
	if attrs.ReadOnly {
		if err := SetReadOnly(path, false); err != nil {
			return errors.Wrap(err, "unable to clear read-only attribute for fixup")
		}
	}

	if err := os.Chtimes(path, attrs.LastAccessTimeUTC, attrs.LastWriteTimeUTC); err != nil {
		return errors.Wrap(err, "unable to set last-write/last-access time")
	}
	if err := setCreationTime(path, attrs.CreationTimeUTC); err != nil {
		return errors.Wrap(err, "unable to set creation time")
	}
	if err := SetHidden(path, attrs.Hidden); err != nil {
		return errors.Wrap(err, "unable to set hidden attribute")
	}

	if attrs.ReadOnly {
		if err := SetReadOnly(path, true); err != nil {
			return errors.Wrap(err, "unable to restore read-only attribute")
		}
	}

	return nil
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if os.IsPathSeparator(path[i]) {
			return path[:i]
		}
	}
	return "."
}
