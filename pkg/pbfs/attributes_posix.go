//go:build !windows

package pbfs

import (
	"os"
	"time"

	"github.com/pkg/errors"
)

// SetReadOnly sets or clears the read-only attribute on path by toggling the
// owner/group/world write bits.
func SetReadOnly(path string, readOnly bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "unable to stat path")
	}

	mode := info.Mode()
	if readOnly {
		mode &^= 0222
	} else {
		mode |= 0200
	}

	return os.Chmod(path, mode)
}

// SetHidden is a no-op on POSIX systems, where "hidden" is purely a naming
// convention (a leading dot) rather than a settable attribute bit.
func SetHidden(path string, hidden bool) error {
	return nil
}

// setCreationTime is a best-effort no-op on POSIX systems: most POSIX
// filesystems don't expose a settable birth time through any stable syscall
// (Linux's statx can read it on some filesystems but there is no portable
// setter). The fingerprint still captures whatever creation time extstat
// reported at read time, so copies remain internally consistent even though
// this fixup can't apply on this platform.
func setCreationTime(path string, creationTimeUTC time.Time) error {
	return nil
}
