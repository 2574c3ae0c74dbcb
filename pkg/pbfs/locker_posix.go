//go:build !windows && !plan9

package pbfs

import (
	"golang.org/x/sys/unix"
)

// Lock attempts to acquire the advisory lock. If block is false and the lock
// is already held, it returns immediately with an error.
func (l *Locker) Lock(block bool) error {
	how := unix.LOCK_EX
	if !block {
		how |= unix.LOCK_NB
	}
	return unix.Flock(int(l.file.Fd()), how)
}

// Unlock releases the advisory lock.
func (l *Locker) Unlock() error {
	return unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
}
