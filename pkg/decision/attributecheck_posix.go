//go:build !windows

package decision

// compareCreationTimeOnAttributeCheck is false on POSIX: most POSIX
// filesystems expose no portable way to set a file's birth time after
// copying (see pbfs.setCreationTime), so a candidate's on-disk creation
// time can never be made to match the source's recorded value even when
// the file is otherwise identical. Comparing it here would turn the
// defense-in-depth check of spec.md §4.5 step 6 into a guaranteed false
// positive on every POSIX platform, defeating linking entirely. Last-write
// time and the Hidden attribute are genuinely preserved by a copy, so they
// remain part of the check.
const compareCreationTimeOnAttributeCheck = false
