// Package fingerprint computes the stable per-file identity used to
// deduplicate backup content: a composite of the file's content digest and
// selected metadata, as described in spec.md §4.1.
package fingerprint

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Size is the length, in bytes, of a Fingerprint.
const Size = md5.Size

// Fingerprint is the 16-byte composite identity of a regular file. It fuses
// an MD5 content digest with folded timestamp hashes and the Hidden
// attribute, then MD5's the result again. The composition is fixed: changing
// any component invalidates every previously stored index.
type Fingerprint [Size]byte

// Metadata is the subset of file metadata that participates in fingerprint
// composition. Times must already be normalized to UTC by the caller.
type Metadata struct {
	// LastWriteTimeUTC is the file's last-modification time, in UTC.
	LastWriteTimeUTC time.Time
	// CreationTimeUTC is the file's creation time, in UTC. On filesystems
	// that don't track creation time separately, the caller should fall
	// back to the last-write time (the source behaves the same way).
	CreationTimeUTC time.Time
	// Hidden reports whether the file carries the platform's Hidden
	// attribute (on POSIX, conventionally a leading dot in the base name).
	Hidden bool
}

// foldTicks hashes a timestamp the way the source does: treat it as a 64-bit
// tick count and fold it to 32 bits by XORing the high and low halves.
func foldTicks(t time.Time) uint32 {
	ticks := uint64(t.UnixNano())
	high := uint32(ticks >> 32)
	low := uint32(ticks)
	return high ^ low
}

// Compute reads r to completion and returns the Fingerprint of its content
// combined with meta. r is consumed to EOF; the caller is responsible for
// positioning it at the start of the file and for closing the underlying
// handle.
func Compute(r io.Reader, meta Metadata) (Fingerprint, error) {
	contentHash := md5.New()
	if _, err := io.Copy(contentHash, r); err != nil {
		return Fingerprint{}, errors.Wrap(err, "unable to read file content")
	}

	buffer := make([]byte, 0, md5.Size+4+4+1)
	buffer = contentHash.Sum(buffer)

	var tick [4]byte
	binary.LittleEndian.PutUint32(tick[:], foldTicks(meta.LastWriteTimeUTC))
	buffer = append(buffer, tick[:]...)
	binary.LittleEndian.PutUint32(tick[:], foldTicks(meta.CreationTimeUTC))
	buffer = append(buffer, tick[:]...)

	if meta.Hidden {
		buffer = append(buffer, 0x01)
	} else {
		buffer = append(buffer, 0x00)
	}

	return Fingerprint(md5.Sum(buffer)), nil
}

// String renders the Fingerprint as an uppercase hex-dash string: 16 bytes
// become 32 hex digits joined by 15 dashes, one per byte (47 characters
// total). This is the on-the-wire form used for sidecar keys (spec.md §6).
func (f Fingerprint) String() string {
	var builder strings.Builder
	builder.Grow(Size*2 + Size - 1)
	for i, b := range f {
		if i > 0 {
			builder.WriteByte('-')
		}
		builder.WriteString(strings.ToUpper(hex.EncodeToString([]byte{b})))
	}
	return builder.String()
}

// IsZero reports whether f is the zero Fingerprint, used as a sentinel for
// "not present" in call sites that can't use a (Fingerprint, bool) pair.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// Parse decodes a hex-dash string produced by String back into a
// Fingerprint. Parsing is case-insensitive.
func Parse(s string) (Fingerprint, error) {
	cleaned := strings.ReplaceAll(s, "-", "")
	if len(cleaned) != Size*2 {
		return Fingerprint{}, errors.Errorf("invalid fingerprint length: %q", s)
	}
	decoded, err := hex.DecodeString(cleaned)
	if err != nil {
		return Fingerprint{}, errors.Wrap(err, "invalid fingerprint encoding")
	}
	var fp Fingerprint
	copy(fp[:], decoded)
	return fp, nil
}
