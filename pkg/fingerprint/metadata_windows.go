//go:build windows

package fingerprint

import (
	"os"
	"syscall"
	"time"

	"github.com/Microsoft/go-winio"
	"github.com/pkg/errors"
)

// fileAttributeHidden is the Win32 FILE_ATTRIBUTE_HIDDEN bit.
const fileAttributeHidden = 0x2

// MetadataFromFile queries the metadata fields fingerprinting needs directly
// from an open file handle, using go-winio's FileBasicInfo to reach the
// creation time and Hidden attribute that os.FileInfo alone does not expose
// on Windows.
func MetadataFromFile(file *os.File) (Metadata, error) {
	info, err := winio.GetFileBasicInfo(file)
	if err != nil {
		return Metadata{}, errors.Wrap(err, "unable to query file basic info")
	}

	return Metadata{
		LastWriteTimeUTC: filetimeToUTC(info.LastWriteTime),
		CreationTimeUTC:  filetimeToUTC(info.CreationTime),
		Hidden:           info.FileAttributes&fileAttributeHidden != 0,
	}, nil
}

func filetimeToUTC(ft syscall.Filetime) time.Time {
	return time.Unix(0, ft.Nanoseconds()).UTC()
}
