// Package orchestrator drives one of the four modes described in spec.md
// §4.6 across a filtered source stream, using an explicit tagged variant
// instead of a dynamic parameter set (spec.md §9).
package orchestrator

// Kind identifies which of the four mutually exclusive modes a Config
// describes.
type Kind int

const (
	// Backup composes a source stream from inclusion/exclusion patterns and
	// backs it up into a dated snapshot directory, sharing unchanged content
	// via hard links.
	Backup Kind = iota
	// MakeIndex computes fingerprints for every file under a directory and
	// exports a standalone sidecar at its root, without copying anything.
	MakeIndex
	// Rehardlink rewrites a directory tree in place, replacing
	// byte-identical files with hard links to a single canonical instance.
	Rehardlink
	// Verify recomputes fingerprints for every sidecar entry found under a
	// directory and reports divergence.
	Verify
)

// String renders Kind for logging.
func (k Kind) String() string {
	switch k {
	case Backup:
		return "backup"
	case MakeIndex:
		return "make-index"
	case Rehardlink:
		return "rehardlink"
	case Verify:
		return "verify"
	default:
		return "unknown"
	}
}

// BackupConfig carries the fields relevant to Backup mode only.
type BackupConfig struct {
	// SourcePath is either a line-oriented inclusion pattern file, or a
	// directory (interpreted as "dir/*").
	SourcePath string
	// BackupRoot is the repository root under which a dated snapshot
	// directory is created.
	BackupRoot string
	// ExclusionFile is an optional line-oriented exclusion pattern file.
	ExclusionFile string
	// DeleteExistingBackup, if set, removes an existing snapshot directory
	// for today's date before starting (otherwise a pre-existing directory
	// is a precondition failure, exit code 1).
	DeleteExistingBackup bool
	// NotShadowed disables the snapshot view and reads source files
	// directly from the live filesystem.
	NotShadowed bool
	// LinkToDirectory, if set, triggers an internal MakeIndex sub-run over
	// this directory before the backup proper, merging its sidecar into the
	// live index so the backup can link against files that were never
	// themselves backed up.
	LinkToDirectory string
	// LinkToHashtables, if set, imports these additional sidecar files
	// (found anywhere, not just under BackupRoot) into the live index.
	LinkToHashtables []string
}

// MakeIndexConfig carries the fields relevant to MakeIndex mode only.
type MakeIndexConfig struct {
	// Directory is walked recursively; a sidecar is written at its root.
	Directory string
	// NotShadowed disables the snapshot view.
	NotShadowed bool
}

// RehardlinkConfig carries the fields relevant to Rehardlink mode only.
type RehardlinkConfig struct {
	// Directory is rewritten in place.
	Directory string
	// LinkToHashtables, if set, imports these additional sidecar files into
	// the live index before rewriting begins.
	LinkToHashtables []string
}

// VerifyConfig carries the fields relevant to Verify mode only.
type VerifyConfig struct {
	// Directory is walked to find every sidecar beneath it.
	Directory string
}

// Config is a tagged union: exactly one of the pointer fields matching Kind
// is populated. This replaces the source's dynamic parameter-set dispatch
// (spec.md §9 redesign flag) with a value whose arms carry only the fields
// that apply to that mode.
type Config struct {
	Kind       Kind
	Backup     *BackupConfig
	MakeIndex  *MakeIndexConfig
	Rehardlink *RehardlinkConfig
	Verify     *VerifyConfig
}
