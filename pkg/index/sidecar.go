package index

import (
	"encoding/xml"
	"os"

	"github.com/pkg/errors"

	"github.com/psbackup/psbackup/pkg/fingerprint"
	"github.com/psbackup/psbackup/pkg/pbfs"
)

// SidecarName is the well-known sidecar file name written alongside every
// snapshot and hashed directory, per spec.md §6.
const SidecarName = "psbackup-hashtable.xml"

// StoredIndex is the on-disk form of a Fingerprint→RelativePath mapping.
// RelativePath is relative to the directory containing the sidecar file, so
// a repository subtree can be relocated without rewriting every sidecar.
type StoredIndex struct {
	Entries map[fingerprint.Fingerprint]string
}

// storedIndexXML is the wire representation: a flat list of key/value pairs.
// A list-of-pairs shape (rather than attempting to use Fingerprint as an XML
// attribute/element name directly) round-trips any path value losslessly,
// including arbitrarily long values and characters XML element names can't
// hold.
type storedIndexXML struct {
	XMLName xml.Name         `xml:"hashtable"`
	Entries []storedEntryXML `xml:"entry"`
}

type storedEntryXML struct {
	Fingerprint string `xml:"fingerprint,attr"`
	Path        string `xml:",chardata"`
}

// LoadStoredIndex reads and parses the sidecar at path.
func LoadStoredIndex(path string) (*StoredIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read sidecar")
	}

	var wire storedIndexXML
	if err := xml.Unmarshal(data, &wire); err != nil {
		return nil, errors.Wrap(err, "unable to parse sidecar")
	}

	stored := &StoredIndex{Entries: make(map[fingerprint.Fingerprint]string, len(wire.Entries))}
	for _, entry := range wire.Entries {
		fp, err := fingerprint.Parse(entry.Fingerprint)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid fingerprint %q in sidecar", entry.Fingerprint)
		}
		stored.Entries[fp] = entry.Path
	}

	return stored, nil
}

// SaveStoredIndex serializes stored and writes it atomically to path.
func SaveStoredIndex(path string, stored *StoredIndex) error {
	wire := storedIndexXML{Entries: make([]storedEntryXML, 0, len(stored.Entries))}
	for fp, relativePath := range stored.Entries {
		wire.Entries = append(wire.Entries, storedEntryXML{
			Fingerprint: fp.String(),
			Path:        relativePath,
		})
	}

	data, err := xml.MarshalIndent(wire, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to marshal sidecar")
	}
	data = append([]byte(xml.Header), data...)

	return pbfs.WriteFileAtomic(path, data, 0600)
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
