package orchestrator

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/psbackup/psbackup/pkg/decision"
	"github.com/psbackup/psbackup/pkg/index"
)

// runRehardlink implements Rehardlink mode (spec.md §4.6): walk cfg.Directory
// in place, building the index from scratch as files are visited (plus any
// imported hashtables), and replace every byte-identical duplicate with a
// hard link to the first instance encountered. The run's own advisory lock
// file (lockFileName) is neither rewritten nor indexed.
func (r *runContext) runRehardlink(cfg *RehardlinkConfig) (Summary, error) {
	var summary Summary

	for _, hashtable := range cfg.LinkToHashtables {
		if err := r.mergeSingleSidecar(hashtable); err != nil {
			r.logger().Warnw("unable to import hashtable, skipping", "path", hashtable, "error", err)
		}
	}

	stream, err := buildSourceStream([]string{cfg.Directory}, nil)
	if err != nil {
		return summary, err
	}

	engine := r.decisionEngine()

	for _, entry := range stream {
		if entry.IsDir || filepath.Base(entry.AbsolutePath) == lockFileName {
			continue
		}

		source, err := r.describeSource(entry)
		if err != nil {
			summary.FilesFailed++
			r.logger().Warnw("unable to read source metadata, skipping", "path", entry.AbsolutePath, "error", err)
			continue
		}

		shortPath, err := r.orchestrator.Resolver.Shorten(entry.AbsolutePath)
		if err != nil {
			summary.FilesSkippedPathLength++
			r.logger().Warnw("path too long, skipping", "path", entry.AbsolutePath, "error", err)
			continue
		}
		source.PhysicalPath = shortPath

		outcome := engine.DecideRehardlink(source)
		switch outcome.Kind {
		case decision.Linked:
			summary.BytesLinked += uint64(outcome.BytesLinked)
			summary.FilesLinked++
		case decision.Failed:
			summary.FilesFailed++
			r.logger().Warnw("rehardlink failed", "path", outcome.DestPath, "reason", outcome.Reason, "error", outcome.Err)
		}
	}

	if err := r.index.Export(cfg.Directory, index.SidecarName); err != nil {
		return summary, errors.Wrap(err, "unable to export index")
	}

	return summary, nil
}
