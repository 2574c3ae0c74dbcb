//go:build !windows

package fingerprint

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mutagen-io/extstat"
	"github.com/pkg/errors"
)

// MetadataFromFile queries the metadata fields fingerprinting needs from an
// open file handle. POSIX filesystems expose no Hidden attribute, so a
// leading dot in the base name is used by convention, matching the source's
// treatment of dotfiles. Creation time is read via extstat, which falls back
// through platform-specific stat extensions (e.g. statx/birthtime) where the
// standard library's os.FileInfo does not surface it.
func MetadataFromFile(file *os.File) (Metadata, error) {
	info, err := file.Stat()
	if err != nil {
		return Metadata{}, errors.Wrap(err, "unable to stat file")
	}

	extended, err := extstat.NewFromFileInfo(info)
	if err != nil {
		return Metadata{}, errors.Wrap(err, "unable to query extended stat information")
	}

	base := filepath.Base(file.Name())

	return Metadata{
		LastWriteTimeUTC: info.ModTime().UTC(),
		CreationTimeUTC:  extended.BirthTime().UTC(),
		Hidden:           strings.HasPrefix(base, "."),
	}, nil
}
