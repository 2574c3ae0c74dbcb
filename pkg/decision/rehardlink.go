package decision

import (
	"os"
	"time"

	"go.uber.org/multierr"

	"github.com/psbackup/psbackup/pkg/pbfs"
)

// RetryConfig bounds the delete+link retry loop used by DecideRehardlink,
// per spec.md §4.5: "100 retries × 60s is the observed upper bound in
// practice; implementations may expose lower defaults."
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryConfig returns a conservative default, well below the
// spec-cited upper bound, suitable for interactive use.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 10, Delay: 500 * time.Millisecond}
}

// DecideRehardlink runs the same 8-step procedure as Decide, but for the
// in-place rehardlink variant: when step 8 (binary equality) succeeds, it
// asserts the candidate and source aren't already the same object, deletes
// the source file, and creates a hard link at the source path pointing to
// the candidate's inode, retrying the delete+link pair under bounded
// transient failure.
func (e *Engine) DecideRehardlink(source SourceFile) Outcome {
	if source.IsDir || source.IsSymlink || source.ReadOnly {
		return Outcome{Kind: Skipped, Reason: reasonFor(source), DestPath: source.PhysicalPath}
	}

	fp, err := e.computeFingerprint(source)
	if err != nil {
		return Outcome{Kind: Failed, Reason: "fingerprint", DestPath: source.PhysicalPath, Err: err}
	}

	candidate, hasCandidate := e.Index.Lookup(fp)
	if !hasCandidate || e.Index.Empty() {
		e.Index.InsertCurrent(fp, source.PhysicalPath)
		return Outcome{Kind: Skipped, Reason: ReasonNewHash, DestPath: source.PhysicalPath}
	}

	if _, err := os.Lstat(candidate); err != nil {
		e.Index.InsertCurrent(fp, source.PhysicalPath)
		return Outcome{Kind: Skipped, Reason: ReasonHashRefersToMissingFile, DestPath: source.PhysicalPath}
	}

	if e.attributeMismatch(source, candidate) {
		e.Index.InsertCurrent(fp, source.PhysicalPath)
		return Outcome{Kind: Skipped, Reason: ReasonAttributeMismatch, DestPath: source.PhysicalPath}
	}

	equal, err := pbfs.ByteEqual(candidate, source.PhysicalPath)
	if err != nil {
		return Outcome{Kind: Failed, Reason: "binary-compare", DestPath: source.PhysicalPath, Err: err}
	}
	if !equal {
		e.Index.InsertCurrent(fp, source.PhysicalPath)
		return Outcome{Kind: Skipped, Reason: ReasonBinaryMismatch, DestPath: source.PhysicalPath}
	}

	same, err := pbfs.SameFile(candidate, source.PhysicalPath)
	if err != nil {
		return Outcome{Kind: Failed, Reason: "same-file-check", DestPath: source.PhysicalPath, Err: err}
	}
	if same {
		return Outcome{Kind: Skipped, Reason: "already-linked", DestPath: source.PhysicalPath}
	}

	size := int64(0)
	if info, err := os.Stat(source.PhysicalPath); err == nil {
		size = info.Size()
	}

	if err := e.replaceWithHardlinkRetrying(candidate, source.PhysicalPath); err != nil {
		return Outcome{Kind: Failed, Reason: "transient-race", DestPath: source.PhysicalPath, Err: err}
	}

	return Outcome{Kind: Linked, DestPath: source.PhysicalPath, BytesLinked: size}
}

// replaceWithHardlinkRetrying deletes path and replaces it with a hard link
// to candidate, retrying the pair under RehardlinkRetry's bounds. Filesystem
// handle races around delete+link are common enough in practice that a
// single attempt isn't reliable (spec.md §4.5).
func (e *Engine) replaceWithHardlinkRetrying(candidate, path string) error {
	var accumulated error

	attempts := e.RehardlinkRetry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		// A previous attempt may have removed path and then failed to link;
		// in that case go straight to retrying the link.
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			accumulated = multierr.Append(accumulated, err)
			time.Sleep(e.RehardlinkRetry.Delay)
			continue
		}
		if err := pbfs.MakeHardLink(candidate, path); err != nil {
			accumulated = multierr.Append(accumulated, err)
			time.Sleep(e.RehardlinkRetry.Delay)
			continue
		}
		return nil
	}

	return accumulated
}

func reasonFor(source SourceFile) string {
	switch {
	case source.IsDir:
		return ReasonDirectory
	case source.IsSymlink:
		return ReasonSymlink
	case source.ReadOnly:
		return ReasonReadOnly
	default:
		return ""
	}
}
