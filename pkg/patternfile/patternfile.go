// Package patternfile parses the line-oriented inclusion/exclusion pattern
// files described in spec.md §6, and matches candidate paths against the
// resulting glob-style patterns.
package patternfile

import (
	"bufio"
	"io"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// Pattern is a single parsed line from a pattern file.
type Pattern struct {
	// Raw is the pattern text after comment stripping and trimming.
	Raw string
}

// Parse reads pattern-file lines from r. Trailing comments introduced by
// "#", "::", or "//" are stripped before whitespace trimming; empty lines
// are ignored; a line starting with "*" is rejected as ambiguous.
func Parse(r io.Reader) ([]Pattern, error) {
	var patterns []Pattern

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "*") {
			return nil, errors.Errorf("line %d: pattern %q starting with '*' is ambiguous", lineNumber, line)
		}
		patterns = append(patterns, Pattern{Raw: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to read pattern file")
	}

	return patterns, nil
}

// stripComment removes the first occurrence of "#", "::", or "//" and
// everything after it.
func stripComment(line string) string {
	cut := len(line)
	for _, marker := range []string{"#", "::", "//"} {
		if idx := strings.Index(line, marker); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return line[:cut]
}

// Match reports whether candidate (a forward-slash-style relative path)
// matches any of patterns.
func Match(patterns []Pattern, candidate string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern.Raw, candidate)
		if err != nil {
			return false, errors.Wrapf(err, "invalid pattern %q", pattern.Raw)
		}
		if matched {
			return true, nil
		}
		// Also try matching the base name, so a slash-free pattern like
		// "?.tmp" excludes nested matches without requiring "**/?.tmp".
		if matched, err := doublestar.Match(pattern.Raw, baseName(candidate)); err == nil && matched {
			return true, nil
		}
	}
	return false, nil
}

func baseName(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
