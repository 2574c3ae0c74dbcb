//go:build windows

package pbfs

import "golang.org/x/sys/windows"

// Lock attempts to acquire the advisory lock using LockFileEx over the
// entire (notional) extent of the lock file.
func (l *Locker) Lock(block bool) error {
	var flags uint32 = windows.LOCKFILE_EXCLUSIVE_LOCK
	if !block {
		flags |= windows.LOCKFILE_FAIL_IMMEDIATELY
	}
	overlapped := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(l.file.Fd()), flags, 0, 1, 0, overlapped)
}

// Unlock releases the advisory lock.
func (l *Locker) Unlock() error {
	overlapped := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(l.file.Fd()), 0, 1, 0, overlapped)
}
