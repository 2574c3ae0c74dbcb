package pbfs

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
)

// readChunkSize is the buffer size used by ByteEqual's comparison loop.
const readChunkSize = 64 * 1024

// MakeHardLink creates a new directory entry at dst referencing the same
// inode as src. dst's parent directory must already exist; the caller is
// responsible for proving src and the file dst is meant to replace are
// byte-identical before calling this (spec.md §4.5 link semantics).
func MakeHardLink(src, dst string) error {
	if err := os.Link(src, dst); err != nil {
		return errors.Wrap(err, "unable to create hard link")
	}
	return nil
}

// ByteEqual performs a byte-by-byte comparison of the contents of two
// regular files. It is the mandatory re-check of spec.md §4.5 step 7: a
// fingerprint match is never sufficient on its own to justify a hard link.
func ByteEqual(pathA, pathB string) (bool, error) {
	fileA, err := os.Open(pathA)
	if err != nil {
		return false, errors.Wrapf(err, "unable to open %s", pathA)
	}
	defer fileA.Close()

	fileB, err := os.Open(pathB)
	if err != nil {
		return false, errors.Wrapf(err, "unable to open %s", pathB)
	}
	defer fileB.Close()

	infoA, err := fileA.Stat()
	if err != nil {
		return false, errors.Wrap(err, "unable to stat first file")
	}
	infoB, err := fileB.Stat()
	if err != nil {
		return false, errors.Wrap(err, "unable to stat second file")
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}

	bufferA := make([]byte, readChunkSize)
	bufferB := make([]byte, readChunkSize)
	for {
		nA, errA := io.ReadFull(fileA, bufferA)
		nB, errB := io.ReadFull(fileB, bufferB)
		if nA != nB || !bytes.Equal(bufferA[:nA], bufferB[:nB]) {
			return false, nil
		}
		if errA == io.EOF && errB == io.EOF {
			return true, nil
		}
		if errA != nil && errA != io.ErrUnexpectedEOF && errA != io.EOF {
			return false, errors.Wrap(errA, "unable to read first file")
		}
		if errB != nil && errB != io.ErrUnexpectedEOF && errB != io.EOF {
			return false, errors.Wrap(errB, "unable to read second file")
		}
		if errA == io.ErrUnexpectedEOF || errB == io.ErrUnexpectedEOF {
			return nA == nB, nil
		}
	}
}

// SameFile reports whether pathA and pathB refer to the same underlying
// filesystem object (device + inode), used by the rehardlink variant to
// assert that the candidate and the file it's about to replace aren't
// already identical.
func SameFile(pathA, pathB string) (bool, error) {
	infoA, err := os.Lstat(pathA)
	if err != nil {
		return false, errors.Wrapf(err, "unable to stat %s", pathA)
	}
	infoB, err := os.Lstat(pathB)
	if err != nil {
		return false, errors.Wrapf(err, "unable to stat %s", pathB)
	}
	return os.SameFile(infoA, infoB), nil
}
