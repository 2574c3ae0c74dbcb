package orchestrator

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/psbackup/psbackup/pkg/patternfile"
	"github.com/psbackup/psbackup/pkg/pbfs"
)

// sourceRoots returns the set of absolute roots to walk for a Backup source
// specification: if sourcePath names a directory, that single directory is
// the only root (interpreted as "dir/*"); otherwise sourcePath is read as a
// line-oriented inclusion pattern file whose lines are literal root paths.
func sourceRoots(sourcePath string) ([]string, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, errors.Wrap(err, "unable to stat source path")
	}

	if info.IsDir() {
		return []string{sourcePath}, nil
	}

	file, err := os.Open(sourcePath)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open inclusion list")
	}
	defer file.Close()

	patterns, err := patternfile.Parse(file)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse inclusion list")
	}

	roots := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		roots = append(roots, pattern.Raw)
	}
	return roots, nil
}

// buildSourceStream enumerates every file and directory under roots, in
// lexicographic depth-first order with duplicates removed, and drops any
// entry matched by exclusionPatterns. The result is finite and not
// restartable without calling this again, per spec.md §3's Source Stream
// definition.
func buildSourceStream(roots []string, exclusionPatterns []patternfile.Pattern) ([]sourceEntry, error) {
	seen := make(map[string]struct{})
	var stream []sourceEntry

	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to resolve root %s", root)
		}

		err = pbfs.ListRecursive(absRoot, func(path string, isDir bool) error {
			if _, dup := seen[path]; dup {
				return nil
			}
			seen[path] = struct{}{}

			rel, err := filepath.Rel(absRoot, path)
			if err != nil {
				rel = path
			}
			candidate := filepath.ToSlash(rel)

			if len(exclusionPatterns) > 0 {
				matched, err := patternfile.Match(exclusionPatterns, candidate)
				if err != nil {
					return err
				}
				if matched {
					return nil
				}
			}

			stream = append(stream, sourceEntry{
				AbsolutePath: path,
				RelativeTo:   absRoot,
				IsDir:        isDir,
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return stream, nil
}

// sourceEntry is one item in the enumerated source stream.
type sourceEntry struct {
	AbsolutePath string
	RelativeTo   string
	IsDir        bool
}

// destinationPath composes the destination path for an entry inside a
// snapshot or rehardlink-scoped directory: the entry's path relative to its
// enumeration root, joined onto destRoot.
func destinationPath(entry sourceEntry, destRoot string) string {
	rel, err := filepath.Rel(entry.RelativeTo, entry.AbsolutePath)
	if err != nil {
		rel = filepath.Base(entry.AbsolutePath)
	}
	return filepath.Join(destRoot, rel)
}

// loadExclusionPatterns parses path (if non-empty) as a line-oriented
// exclusion pattern file.
func loadExclusionPatterns(path string) ([]patternfile.Pattern, error) {
	if path == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open exclusion file")
	}
	defer file.Close()
	return patternfile.Parse(file)
}

// isReadOnly reports whether the regular file at path carries the read-only
// attribute (eligibility predicate, spec.md §3).
func isReadOnly(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.Mode()&0200 == 0, nil
}

// isSymlink reports whether path, as seen by Lstat, is a symbolic link.
func isSymlink(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return false, err
	}
	return info.Mode()&os.ModeSymlink != 0, nil
}
