//go:build !windows

package pbfs

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// LinkCount returns the number of hard links referencing path's inode.
func LinkCount(path string) (uint64, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return 0, errors.Wrap(err, "unable to stat path")
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, errors.New("unable to extract raw filesystem information")
	}
	return uint64(stat.Nlink), nil
}
