// Package snapshotsource defines the Snapshot Source Provider collaborator
// interface (spec.md §4.3): a narrow abstraction the engine uses to read
// source files either from a point-in-time snapshot view of a live volume or
// directly from the live filesystem, without caring which.
package snapshotsource

import (
	"io"
	"os"

	"github.com/psbackup/psbackup/pkg/fingerprint"
)

// Handle is a read-only handle into a source file, together with the
// metadata fingerprinting needs and the display path to use for logs and
// destination-path composition.
type Handle struct {
	// Reader is positioned at the start of the file's content.
	Reader io.ReadCloser
	// Metadata is the fingerprint-relevant metadata of the file.
	Metadata fingerprint.Metadata
	// DisplayPath is the user-facing path to use for logging and for
	// composing destination paths. For a snapshot-backed provider this is
	// the translated, original path; for a direct provider it is simply
	// the physical path.
	DisplayPath string
}

// Provider yields read-only handles to source files, abstracting over
// whether they come from a snapshot view or the live filesystem.
type Provider interface {
	// Open returns a Handle for sourcePath. The caller must close the
	// returned Reader.
	Open(sourcePath string) (Handle, error)

	// Translate maps a physical path (as seen by Open) back to its
	// user-facing display path. Providers backed by a snapshot view use
	// this to strip the snapshot's mount point; a direct provider returns
	// its input unchanged.
	Translate(physicalPath string) string

	// Release frees any resources associated with the provider (for
	// example, an open snapshot view). It is called exactly once, at
	// orchestrator shutdown, regardless of errors encountered during the
	// run.
	Release() error
}

// Direct is a Provider backed by the live filesystem: no snapshot view is
// taken, Open reads the file as it stands at call time, and Translate is the
// identity function. It must be interchangeable with any snapshot-backed
// provider per spec.md §4.3.
type Direct struct{}

// Open implements Provider.Open.
func (Direct) Open(sourcePath string) (Handle, error) {
	file, err := os.Open(sourcePath)
	if err != nil {
		return Handle{}, err
	}

	meta, err := fingerprint.MetadataFromFile(file)
	if err != nil {
		file.Close()
		return Handle{}, err
	}

	return Handle{
		Reader:      file,
		Metadata:    meta,
		DisplayPath: sourcePath,
	}, nil
}

// Translate implements Provider.Translate.
func (Direct) Translate(physicalPath string) string {
	return physicalPath
}

// Release implements Provider.Release.
func (Direct) Release() error {
	return nil
}

var _ Provider = Direct{}

// Unsupported is a Provider stub documenting where a real host-OS snapshot
// facility (e.g. a Windows VSS shadow copy or an LVM/ZFS snapshot) plugs in.
// That facility is declared out of scope in spec.md §1 and is consumed only
// through this interface; Unsupported exists so a caller can fail clearly
// rather than silently falling back to Direct semantics when shadowing was
// explicitly requested but no platform implementation is wired in.
type Unsupported struct {
	// Reason describes why no snapshot provider is available on this
	// platform or build.
	Reason string
}

// Open implements Provider.Open.
func (u Unsupported) Open(string) (Handle, error) {
	return Handle{}, &UnsupportedError{Reason: u.Reason}
}

// Translate implements Provider.Translate.
func (Unsupported) Translate(physicalPath string) string {
	return physicalPath
}

// Release implements Provider.Release.
func (Unsupported) Release() error {
	return nil
}

var _ Provider = Unsupported{}

// UnsupportedError is returned by Unsupported.Open.
type UnsupportedError struct {
	Reason string
}

func (e *UnsupportedError) Error() string {
	if e.Reason == "" {
		return "snapshot source provider not supported on this platform"
	}
	return "snapshot source provider not supported: " + e.Reason
}
