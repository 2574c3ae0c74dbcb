package fingerprint

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeDeterministic(t *testing.T) {
	meta := Metadata{
		LastWriteTimeUTC: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		CreationTimeUTC:  time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		Hidden:           false,
	}

	a, err := Compute(strings.NewReader("hello"), meta)
	require.NoError(t, err)

	b, err := Compute(strings.NewReader("hello"), meta)
	require.NoError(t, err)

	require.Equal(t, a, b, "fingerprint must be deterministic for identical content and metadata")
}

func TestComputeSensitiveToEachComponent(t *testing.T) {
	base := Metadata{
		LastWriteTimeUTC: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		CreationTimeUTC:  time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		Hidden:           false,
	}
	baseFP, err := Compute(strings.NewReader("hello"), base)
	require.NoError(t, err)

	withDifferentWrite := base
	withDifferentWrite.LastWriteTimeUTC = base.LastWriteTimeUTC.Add(time.Second)
	withDifferentCreate := base
	withDifferentCreate.CreationTimeUTC = base.CreationTimeUTC.Add(time.Second)
	withHidden := base
	withHidden.Hidden = true

	for name, meta := range map[string]Metadata{
		"last-write time changed": withDifferentWrite,
		"creation time changed":   withDifferentCreate,
		"hidden bit changed":      withHidden,
	} {
		meta := meta
		t.Run(name, func(t *testing.T) {
			fp, err := Compute(strings.NewReader("hello"), meta)
			require.NoError(t, err)
			require.NotEqual(t, baseFP, fp, "fingerprint should change when %s", name)
		})
	}

	differentContent, err := Compute(strings.NewReader("hello!"), base)
	require.NoError(t, err)
	require.NotEqual(t, baseFP, differentContent, "fingerprint should change when content changes")
}

func TestStringRoundTrip(t *testing.T) {
	meta := Metadata{
		LastWriteTimeUTC: time.Now().UTC(),
		CreationTimeUTC:  time.Now().UTC(),
	}
	fp, err := Compute(strings.NewReader("round trip"), meta)
	require.NoError(t, err)

	s := fp.String()
	require.Len(t, s, Size*2+Size-1, "hex-dash string must be 47 characters for a 16-byte fingerprint")

	parsed, err := Parse(s)
	require.NoError(t, err)
	require.Equal(t, fp, parsed)

	parsedLower, err := Parse(strings.ToLower(s))
	require.NoError(t, err)
	require.Equal(t, fp, parsedLower, "parsing must be case-insensitive")
}

func TestParseRejectsWrongLength(t *testing.T) {
	_, err := Parse("AB-CD")
	require.Error(t, err)
}
