package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the per-directory ignore file honoured during ingest.
const IgnoreFileName = ".hoardignore"

// defaultIgnorePatterns are applied on every walk regardless of config.
var defaultIgnorePatterns = []string{IgnoreFileName}

type ignorePattern struct {
	pattern   string
	matchPath bool // match the path relative to the walk root instead of the basename
}

// IgnoreMatcher decides which files an ingest walk skips.
// Patterns without '/' match a basename at any depth; patterns with '/'
// match the slash-separated path relative to the walk root.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher parses raw patterns. Blank lines and '#' comments are dropped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	m.add(rawPatterns)
	return m
}

func (m *IgnoreMatcher) add(rawPatterns []string) {
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		m.patterns = append(m.patterns, ignorePattern{
			pattern:   strings.TrimSuffix(raw, "/"),
			matchPath: strings.Contains(strings.TrimSuffix(raw, "/"), "/"),
		})
	}
}

// With returns a matcher holding m's patterns followed by extra.
func (m *IgnoreMatcher) With(extra []string) *IgnoreMatcher {
	out := &IgnoreMatcher{patterns: append([]ignorePattern(nil), m.patterns...)}
	out.add(extra)
	return out
}

// Len is the number of active patterns.
func (m *IgnoreMatcher) Len() int { return len(m.patterns) }

// Match reports whether relativePath should be skipped.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	if relativePath == "" {
		return false
	}

	normalized := filepath.ToSlash(relativePath)
	basename := filepath.Base(relativePath)

	for _, p := range m.patterns {
		subject := basename
		if p.matchPath {
			subject = normalized
		}
		// A malformed pattern never matches.
		if matched, err := filepath.Match(p.pattern, subject); err == nil && matched {
			return true
		}
	}
	return false
}

// ParseIgnoreFile reads an ignore file, one pattern per line.
// A missing file yields no patterns and no error.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return patterns, nil
}
