//go:build windows

package decision

// compareCreationTimeOnAttributeCheck is true on Windows, where the
// creation-time fixup (pbfs.setCreationTime, backed by SetFileTime) can
// actually reproduce the source's creation time on a copy, so comparing it
// is a meaningful defense-in-depth check rather than a guaranteed mismatch.
const compareCreationTimeOnAttributeCheck = true
