package pbfs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// DirectoryContents returns the sorted base names of the entries directly
// inside path. Sorting isn't strictly necessary for correctness here, but
// it's cheap and makes behavior reproducible.
func DirectoryContents(path string) ([]string, error) {
	directory, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open directory")
	}
	defer directory.Close()

	names, err := directory.Readdirnames(0)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read directory names")
	}

	sort.Strings(names)
	return names, nil
}

// ListRecursive walks root in lexicographic, depth-first order and invokes
// visit for every entry (files and directories alike), passing the absolute
// path and whether it is a directory. Depth-first lexicographic order is the
// open-question resolution from spec.md §9: repository merge walks and
// source enumeration must both be reproducible.
func ListRecursive(root string, visit func(path string, isDir bool) error) error {
	info, err := os.Lstat(root)
	if err != nil {
		return errors.Wrap(err, "unable to stat root")
	}
	return listRecursive(root, info.IsDir(), visit)
}

func listRecursive(path string, isDir bool, visit func(path string, isDir bool) error) error {
	if err := visit(path, isDir); err != nil {
		return err
	}
	if !isDir {
		return nil
	}

	names, err := DirectoryContents(path)
	if err != nil {
		return err
	}

	for _, name := range names {
		childPath := filepath.Join(path, name)
		childInfo, err := os.Lstat(childPath)
		if err != nil {
			return errors.Wrapf(err, "unable to stat %s", childPath)
		}
		if err := listRecursive(childPath, childInfo.IsDir(), visit); err != nil {
			return err
		}
	}

	return nil
}

// FindByName recursively locates every file under root whose base name
// equals name (or, if name == "*", every non-directory entry), in lexicographic
// depth-first order. Used by Index.MergeFrom to locate sidecars.
func FindByName(root, name string) ([]string, error) {
	var matches []string
	err := ListRecursive(root, func(path string, isDir bool) error {
		if isDir {
			return nil
		}
		if name == "*" || filepath.Base(path) == name {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}
