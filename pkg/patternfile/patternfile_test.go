package patternfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStripsCommentsAndBlankLines(t *testing.T) {
	input := `
# a full-line comment
logs/*.tmp  # trailing comment
cache :: another style
data // yet another

`
	patterns, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, []Pattern{
		{Raw: "logs/*.tmp"},
		{Raw: "cache"},
		{Raw: "data"},
	}, patterns)
}

func TestParseRejectsLeadingStar(t *testing.T) {
	_, err := Parse(strings.NewReader("*.tmp"))
	require.Error(t, err)
}

func TestMatchGlobAndBaseName(t *testing.T) {
	patterns, err := Parse(strings.NewReader("logs/?.tmp"))
	require.NoError(t, err)

	matched, err := Match(patterns, "logs/a.tmp")
	require.NoError(t, err)
	require.True(t, matched)

	matched, err = Match(patterns, "logs/ab.tmp")
	require.NoError(t, err)
	require.False(t, matched)

	// A slash-free pattern also matches on the base name of a nested path.
	basePatterns, err := Parse(strings.NewReader("?.tmp"))
	require.NoError(t, err)

	matched, err = Match(basePatterns, "logs/a.tmp")
	require.NoError(t, err)
	require.True(t, matched)
}
