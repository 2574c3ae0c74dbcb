package pbfs

import (
	"os"

	"github.com/pkg/errors"
)

// Locker provides advisory, best-effort locking of a repository so that two
// psbackup invocations against the same BackupRoot don't race. spec.md §5 is
// explicit that the core does not guard against concurrent invocations; this
// locker is an opportunistic warning mechanism layered on top, not a
// correctness requirement, so failing to acquire it is never fatal.
type Locker struct {
	file *os.File
	path string
}

// NewLocker opens (creating if necessary) the lock file at path.
func NewLocker(path string) (*Locker, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open lock file")
	}
	return &Locker{file: file, path: path}, nil
}

// Close releases the underlying file handle (and, implicitly, any lock held
// on POSIX systems, since the lock is associated with the file descriptor).
func (l *Locker) Close() error {
	return l.file.Close()
}
