package psbackupinfo

import "fmt"

const (
	// VersionMajor is the current major version of psbackup.
	VersionMajor = 0
	// VersionMinor is the current minor version of psbackup.
	VersionMinor = 1
	// VersionPatch is the current patch version of psbackup.
	VersionPatch = 0
)

// Version is the full, formatted version string.
var Version string

func init() {
	Version = fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
}
