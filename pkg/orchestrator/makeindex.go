package orchestrator

import (
	"github.com/pkg/errors"

	"github.com/psbackup/psbackup/pkg/fingerprint"
	"github.com/psbackup/psbackup/pkg/index"
)

// runMakeIndex implements MakeIndex mode (spec.md §4.6): fingerprint every
// regular file under cfg.Directory and write a single sidecar at its root,
// without copying or linking anything.
func (r *runContext) runMakeIndex(cfg *MakeIndexConfig) (Summary, error) {
	var summary Summary

	stream, err := buildSourceStream([]string{cfg.Directory}, nil)
	if err != nil {
		return summary, err
	}

	for _, entry := range stream {
		if entry.IsDir {
			continue
		}

		symlink, err := isSymlink(entry.AbsolutePath)
		if err != nil {
			summary.FilesFailed++
			r.logger().Warnw("unable to stat entry, skipping", "path", entry.AbsolutePath, "error", err)
			continue
		}
		if symlink {
			continue
		}

		handle, err := r.provider.Open(entry.AbsolutePath)
		if err != nil {
			summary.FilesFailed++
			r.logger().Warnw("unable to open source, skipping", "path", entry.AbsolutePath, "error", err)
			continue
		}

		fp, err := fingerprint.Compute(handle.Reader, handle.Metadata)
		handle.Reader.Close()
		if err != nil {
			summary.FilesFailed++
			r.logger().Warnw("unable to fingerprint source, skipping", "path", entry.AbsolutePath, "error", err)
			continue
		}

		r.index.InsertCurrent(fp, entry.AbsolutePath)
		summary.FilesIndexed++
	}

	if err := r.index.Export(cfg.Directory, index.SidecarName); err != nil {
		return summary, errors.Wrap(err, "unable to export index")
	}

	return summary, nil
}
