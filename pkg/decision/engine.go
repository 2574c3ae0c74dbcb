package decision

import (
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/psbackup/psbackup/pkg/fingerprint"
	"github.com/psbackup/psbackup/pkg/index"
	"github.com/psbackup/psbackup/pkg/pbfs"
)

// SourceFile describes one item from the source stream, already resolved to
// a physical, readable location and carrying the metadata fingerprinting
// needs.
type SourceFile struct {
	// DisplayPath is the user-facing path, used only for logging.
	DisplayPath string
	// PhysicalPath is where the bytes and metadata are actually read from
	// (the snapshot-view path, or the live path for a Direct provider).
	PhysicalPath string
	// IsDir is true if this entry is a directory.
	IsDir bool
	// IsSymlink is true if this entry is a symbolic link (spec.md §9 open
	// question: symlinks are recreated as links, never fingerprinted).
	IsSymlink bool
	// ReadOnly is true if the file carries the read-only attribute.
	ReadOnly bool
	// Meta is the fingerprint-relevant metadata (ignored for directories
	// and symlinks).
	Meta fingerprint.Metadata
}

// Engine is the Decision Engine. It holds no cross-call state of its own
// beyond the Index and RehardlinkRetry configuration; all other state
// (counters) belongs to the Orchestrator's RunContext.
type Engine struct {
	Index           *index.Index
	Logger          *zap.SugaredLogger
	RehardlinkRetry RetryConfig
}

// New constructs an Engine bound to idx.
func New(idx *index.Index, logger *zap.SugaredLogger) *Engine {
	return &Engine{
		Index:           idx,
		Logger:          logger,
		RehardlinkRetry: DefaultRetryConfig(),
	}
}

// Decide runs the spec.md §4.5 procedure for one source file and, for any
// outcome other than Failed, applies the resulting filesystem action
// (creating the destination directory, copying bytes and attributes, or
// creating a hard link). The Index is updated immediately on success so
// later files in the same run can link against files processed earlier.
func (e *Engine) Decide(source SourceFile, destinationPath string) Outcome {
	if source.IsDir {
		if err := os.MkdirAll(destinationPath, 0755); err != nil {
			return Outcome{Kind: Failed, Reason: ReasonDirectory, DestPath: destinationPath, Err: err}
		}
		return Outcome{Kind: Copied, Reason: ReasonDirectory, DestPath: destinationPath}
	}

	if source.IsSymlink {
		return e.copySymlink(source, destinationPath)
	}

	if source.ReadOnly {
		return e.copyFresh(source, destinationPath, ReasonReadOnly, false)
	}

	fp, err := e.computeFingerprint(source)
	if err != nil {
		return Outcome{Kind: Failed, Reason: "fingerprint", DestPath: destinationPath, Err: err}
	}

	candidate, hasCandidate := e.Index.Lookup(fp)
	if !hasCandidate || e.Index.Empty() {
		return e.copyFreshAndIndex(source, destinationPath, fp, ReasonNewHash)
	}

	if _, err := os.Lstat(candidate); err != nil {
		e.Logger.Warnw("hash refers to nonexisting file", "candidate", candidate, "source", source.DisplayPath)
		return e.copyFreshAndIndex(source, destinationPath, fp, ReasonHashRefersToMissingFile)
	}

	if mismatch := e.attributeMismatch(source, candidate); mismatch {
		e.Logger.Warnw("hash-equal attribute mismatch, copying instead of linking",
			"candidate", candidate, "source", source.DisplayPath)
		return e.copyFreshAndIndex(source, destinationPath, fp, ReasonAttributeMismatch)
	}

	equal, err := pbfs.ByteEqual(candidate, source.PhysicalPath)
	if err != nil {
		return Outcome{Kind: Failed, Reason: "binary-compare", DestPath: destinationPath, Err: err}
	}
	if !equal {
		e.Logger.Warnw("hash-equal binary mismatch (hash collision or semantic difference), copying instead of linking",
			"candidate", candidate, "source", source.DisplayPath)
		return e.copyFreshAndIndex(source, destinationPath, fp, ReasonBinaryMismatch)
	}

	if err := os.MkdirAll(parentOf(destinationPath), 0755); err != nil {
		return Outcome{Kind: Failed, Reason: "mkdir", DestPath: destinationPath, Err: err}
	}
	if err := pbfs.MakeHardLink(candidate, destinationPath); err != nil {
		return Outcome{Kind: Failed, Reason: "hardlink", DestPath: destinationPath, Err: err}
	}

	size := int64(0)
	if info, err := os.Stat(destinationPath); err == nil {
		size = info.Size()
	}
	e.Index.InsertCurrent(fp, destinationPath)
	return Outcome{Kind: Linked, Reason: "", DestPath: destinationPath, BytesLinked: size}
}

func (e *Engine) computeFingerprint(source SourceFile) (fingerprint.Fingerprint, error) {
	file, err := os.Open(source.PhysicalPath)
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	defer file.Close()
	return fingerprint.Compute(file, source.Meta)
}

func (e *Engine) attributeMismatch(source SourceFile, candidate string) bool {
	file, err := os.Open(candidate)
	if err != nil {
		return true
	}
	defer file.Close()

	candidateMeta, err := fingerprint.MetadataFromFile(file)
	if err != nil {
		return true
	}

	if !sameTime(candidateMeta.LastWriteTimeUTC, source.Meta.LastWriteTimeUTC) {
		return true
	}
	if candidateMeta.Hidden != source.Meta.Hidden {
		return true
	}
	if compareCreationTimeOnAttributeCheck && !sameTime(candidateMeta.CreationTimeUTC, source.Meta.CreationTimeUTC) {
		return true
	}
	return false
}

func sameTime(a, b time.Time) bool {
	return a.Equal(b)
}

func (e *Engine) copyFreshAndIndex(source SourceFile, destinationPath string, fp fingerprint.Fingerprint, reason string) Outcome {
	outcome := e.copyFresh(source, destinationPath, reason, true)
	if outcome.Kind == Copied {
		e.Index.InsertCurrent(fp, destinationPath)
	}
	return outcome
}

func (e *Engine) copyFresh(source SourceFile, destinationPath, reason string, indexEligible bool) Outcome {
	written, err := pbfs.CopyFileContent(source.PhysicalPath, destinationPath)
	if err != nil {
		return Outcome{Kind: Failed, Reason: reason, DestPath: destinationPath, Err: err}
	}

	attrs := pbfs.CopyAttributes{
		LastWriteTimeUTC:  source.Meta.LastWriteTimeUTC,
		LastAccessTimeUTC: source.Meta.LastWriteTimeUTC,
		CreationTimeUTC:   source.Meta.CreationTimeUTC,
		ReadOnly:          source.ReadOnly,
		Hidden:            source.Meta.Hidden,
	}
	if err := pbfs.ApplyAttributes(destinationPath, attrs); err != nil {
		e.Logger.Warnw("unable to fully apply attributes after copy", "path", destinationPath, "error", err)
	}

	return Outcome{Kind: Copied, Reason: reason, DestPath: destinationPath, BytesCopied: written}
}

func (e *Engine) copySymlink(source SourceFile, destinationPath string) Outcome {
	target, err := os.Readlink(source.PhysicalPath)
	if err != nil {
		return Outcome{Kind: Failed, Reason: ReasonSymlink, DestPath: destinationPath, Err: err}
	}
	if err := os.MkdirAll(parentOf(destinationPath), 0755); err != nil {
		return Outcome{Kind: Failed, Reason: ReasonSymlink, DestPath: destinationPath, Err: err}
	}
	if err := os.Symlink(target, destinationPath); err != nil {
		return Outcome{Kind: Failed, Reason: ReasonSymlink, DestPath: destinationPath, Err: err}
	}
	return Outcome{Kind: Copied, Reason: ReasonSymlink, DestPath: destinationPath}
}

func parentOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if os.IsPathSeparator(path[i]) {
			return path[:i]
		}
	}
	return "."
}
