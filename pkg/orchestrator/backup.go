package orchestrator

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/psbackup/psbackup/pkg/decision"
	"github.com/psbackup/psbackup/pkg/index"
)

// PreconditionError marks a fatal, pre-work failure that the CLI layer
// should report with exit code 1 (spec.md §6/§7), as opposed to an error
// encountered mid-run.
type PreconditionError struct {
	msg string
}

func (e *PreconditionError) Error() string { return e.msg }

func preconditionf(format string, args ...interface{}) error {
	return &PreconditionError{msg: errors.Errorf(format, args...).Error()}
}

// runBackup implements Backup mode (spec.md §4.6): compose the source
// stream, create today's snapshot directory, run the Decision Engine over
// every entry, and export the this-run index as a sidecar at the snapshot
// root.
func (r *runContext) runBackup(cfg *BackupConfig) (Summary, error) {
	var summary Summary

	snapshotDir := filepath.Join(cfg.BackupRoot, snapshotDateName(r.orchestrator.now()))

	if _, err := os.Stat(snapshotDir); err == nil {
		if !cfg.DeleteExistingBackup {
			return summary, preconditionf("snapshot directory %s already exists", snapshotDir)
		}
		if err := os.RemoveAll(snapshotDir); err != nil {
			return summary, errors.Wrap(err, "unable to remove existing snapshot directory")
		}
	} else if !os.IsNotExist(err) {
		return summary, errors.Wrap(err, "unable to stat snapshot directory")
	}

	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return summary, errors.Wrap(err, "unable to create snapshot directory")
	}

	if _, err := r.index.MergeFrom(cfg.BackupRoot, index.SidecarName, true, r.logger()); err != nil {
		return summary, errors.Wrap(err, "unable to merge repository index")
	}

	if cfg.LinkToDirectory != "" {
		// Run MakeIndex against its own fresh index so the resulting sidecar
		// (and, by the no-crossing invariant, this run's exported sidecar)
		// never references anything outside its own tree; only afterward do
		// we merge the result into the live backup index.
		subRun := &runContext{orchestrator: r.orchestrator, provider: r.provider, index: index.New()}
		subSummary, err := subRun.runMakeIndex(&MakeIndexConfig{Directory: cfg.LinkToDirectory, NotShadowed: cfg.NotShadowed})
		if err != nil {
			return summary, errors.Wrap(err, "unable to index link-to directory")
		}
		r.logger().Infow("indexed link-to directory", "directory", cfg.LinkToDirectory, "indexed", subSummary.FilesIndexed)

		stats, err := r.index.MergeFrom(cfg.LinkToDirectory, index.SidecarName, false, r.logger())
		if err != nil {
			return summary, errors.Wrap(err, "unable to merge link-to directory index")
		}
		r.logger().Infow("merged link-to directory index", "directory", cfg.LinkToDirectory, "inserted", stats.EntriesInserted)
	}

	for _, hashtable := range cfg.LinkToHashtables {
		if err := r.mergeSingleSidecar(hashtable); err != nil {
			r.logger().Warnw("unable to import hashtable, skipping", "path", hashtable, "error", err)
		}
	}

	exclusions, err := loadExclusionPatterns(cfg.ExclusionFile)
	if err != nil {
		return summary, err
	}

	roots, err := sourceRoots(cfg.SourcePath)
	if err != nil {
		return summary, err
	}

	stream, err := buildSourceStream(roots, exclusions)
	if err != nil {
		return summary, err
	}

	engine := r.decisionEngine()

	for _, entry := range stream {
		destPath := destinationPath(entry, snapshotDir)

		source, err := r.describeSource(entry)
		if err != nil {
			summary.FilesFailed++
			r.logger().Warnw("unable to read source metadata, skipping", "path", entry.AbsolutePath, "error", err)
			continue
		}

		shortDest, err := r.orchestrator.Resolver.Shorten(destPath)
		if err != nil {
			summary.FilesSkippedPathLength++
			r.logger().Warnw("destination path too long, skipping", "path", destPath, "error", err)
			continue
		}

		outcome := engine.Decide(source, shortDest)
		applyOutcome(&summary, outcome, r.logger())
	}

	if err := r.index.Export(snapshotDir, index.SidecarName); err != nil {
		return summary, errors.Wrap(err, "unable to export snapshot index")
	}

	return summary, nil
}

// mergeSingleSidecar loads one explicit sidecar file (as opposed to walking
// a directory for every file named SidecarName) and inserts its entries
// first-write-wins, resolved relative to its own containing directory.
func (r *runContext) mergeSingleSidecar(path string) error {
	stored, err := index.LoadStoredIndex(path)
	if err != nil {
		return err
	}
	containingDir := filepath.Dir(path)
	for fp, relativePath := range stored.Entries {
		r.index.InsertKnown(fp, filepath.Join(containingDir, relativePath))
	}
	return nil
}

// describeSource resolves one source-stream entry into a decision.SourceFile,
// consulting the selected Snapshot Source Provider for metadata and the
// live filesystem for the read-only and symlink predicates.
func (r *runContext) describeSource(entry sourceEntry) (decision.SourceFile, error) {
	if entry.IsDir {
		return decision.SourceFile{
			DisplayPath:  entry.AbsolutePath,
			PhysicalPath: entry.AbsolutePath,
			IsDir:        true,
		}, nil
	}

	symlink, err := isSymlink(entry.AbsolutePath)
	if err != nil {
		return decision.SourceFile{}, err
	}
	if symlink {
		return decision.SourceFile{
			DisplayPath:  entry.AbsolutePath,
			PhysicalPath: entry.AbsolutePath,
			IsSymlink:    true,
		}, nil
	}

	handle, err := r.provider.Open(entry.AbsolutePath)
	if err != nil {
		return decision.SourceFile{}, err
	}
	defer handle.Reader.Close()

	readOnly, err := isReadOnly(entry.AbsolutePath)
	if err != nil {
		return decision.SourceFile{}, err
	}

	return decision.SourceFile{
		DisplayPath:  handle.DisplayPath,
		PhysicalPath: entry.AbsolutePath,
		ReadOnly:     readOnly,
		Meta:         handle.Metadata,
	}, nil
}

// applyOutcome folds one decision.Outcome into the running Summary and logs
// failures and anomalies.
func applyOutcome(summary *Summary, outcome decision.Outcome, logger interface {
	Warnw(string, ...interface{})
}) {
	switch outcome.Kind {
	case decision.Copied:
		summary.BytesCopied += uint64(outcome.BytesCopied)
		if outcome.Reason != decision.ReasonDirectory {
			summary.FilesCopied++
		}
		if outcome.Reason == decision.ReasonReadOnly {
			summary.FilesReadOnly++
		}
	case decision.Linked:
		summary.BytesLinked += uint64(outcome.BytesLinked)
		summary.FilesLinked++
	case decision.Failed:
		summary.FilesFailed++
		logger.Warnw("source file failed", "path", outcome.DestPath, "reason", outcome.Reason, "error", outcome.Err)
	}
}

// snapshotDateName formats t as the YYYY-MM-DD snapshot directory name
// (spec.md §6's persisted state layout).
func snapshotDateName(t time.Time) string {
	return t.Format("2006-01-02")
}
