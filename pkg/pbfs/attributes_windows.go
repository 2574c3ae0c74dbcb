//go:build windows

package pbfs

import (
	"os"
	"time"

	"github.com/hectane/go-acl"
	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// SetReadOnly sets or clears the Win32 FILE_ATTRIBUTE_READONLY bit, and also
// applies an equivalent ACL-level permission via hectane/go-acl so that
// Explorer and Win32 callers relying on ACLs (rather than the legacy
// attribute bit alone) agree on the file's writability.
func SetReadOnly(path string, readOnly bool) error {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return errors.Wrap(err, "unable to convert path")
	}

	attributes, err := windows.GetFileAttributes(pathPtr)
	if err != nil {
		return errors.Wrap(err, "unable to query file attributes")
	}

	if readOnly {
		attributes |= windows.FILE_ATTRIBUTE_READONLY
	} else {
		attributes &^= windows.FILE_ATTRIBUTE_READONLY
	}

	if err := windows.SetFileAttributes(pathPtr, attributes); err != nil {
		return errors.Wrap(err, "unable to set file attributes")
	}

	mode := os.FileMode(0666)
	if readOnly {
		mode = 0444
	}
	if err := acl.Chmod(path, mode); err != nil {
		return errors.Wrap(err, "unable to apply equivalent ACL permissions")
	}

	return nil
}

// SetHidden sets or clears the Win32 FILE_ATTRIBUTE_HIDDEN bit.
func SetHidden(path string, hidden bool) error {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return errors.Wrap(err, "unable to convert path")
	}

	attributes, err := windows.GetFileAttributes(pathPtr)
	if err != nil {
		return errors.Wrap(err, "unable to query file attributes")
	}

	if hidden {
		attributes |= windows.FILE_ATTRIBUTE_HIDDEN
	} else {
		attributes &^= windows.FILE_ATTRIBUTE_HIDDEN
	}

	return errors.Wrap(windows.SetFileAttributes(pathPtr, attributes), "unable to set file attributes")
}

// setCreationTime sets the Win32 creation time via SetFileTime.
func setCreationTime(path string, creationTimeUTC time.Time) error {
	handle, err := windows.CreateFile(
		windowsPathPtr(path),
		windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return errors.Wrap(err, "unable to open file for creation-time fixup")
	}
	defer windows.CloseHandle(handle)

	creation := windows.NsecToFiletime(creationTimeUTC.UnixNano())
	return errors.Wrap(windows.SetFileTime(handle, &creation, nil, nil), "unable to set creation time")
}

func windowsPathPtr(path string) *uint16 {
	ptr, _ := windows.UTF16PtrFromString(path)
	return ptr
}
