package pbfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomicNonExistentDirectory(t *testing.T) {
	require.Error(t, WriteFileAtomic("/does/not/exist/file", []byte{}, 0600))
}

func TestWriteFileAtomicRoundTrip(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sidecar")
	contents := []byte("hello sidecar")

	require.NoError(t, WriteFileAtomic(target, contents, 0600))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, contents, data)
}

func TestByteEqual(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	c := filepath.Join(dir, "c")

	require.NoError(t, os.WriteFile(a, []byte("same content"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("same content"), 0644))
	require.NoError(t, os.WriteFile(c, []byte("different content"), 0644))

	equal, err := ByteEqual(a, b)
	require.NoError(t, err)
	require.True(t, equal)

	equal, err = ByteEqual(a, c)
	require.NoError(t, err)
	require.False(t, equal)
}

func TestMakeHardLinkShareInode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("content"), 0644))

	require.NoError(t, MakeHardLink(src, dst))

	same, err := SameFile(src, dst)
	require.NoError(t, err)
	require.True(t, same)
}

func TestListRecursiveLexicographicDepthFirst(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b", "c.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "z.txt"), []byte("x"), 0644))

	var visited []string
	require.NoError(t, ListRecursive(dir, func(path string, isDir bool) error {
		rel, err := filepath.Rel(dir, path)
		require.NoError(t, err)
		if rel != "." {
			visited = append(visited, rel)
		}
		return nil
	}))

	require.Equal(t, []string{"a.txt", "b", filepath.Join("b", "c.txt"), "z.txt"}, visited)
}

func TestFindByNameMatchesExactName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sidecar.xml"), []byte("<index/>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "sidecar.xml"), []byte("<index/>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "other.txt"), []byte("x"), 0644))

	matches, err := FindByName(dir, "sidecar.xml")
	require.NoError(t, err)
	require.Len(t, matches, 2)
}
