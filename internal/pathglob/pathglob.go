// Package pathglob matches slash-separated glob patterns against a directory
// tree. "*" stays within one path segment and "**" spans any number of them,
// including none when it leads the pattern ("**/headers/cmake" matches
// "headers/cmake").
package pathglob

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Kind filters matches by entry type.
type Kind int

const (
	// Files matches regular files and symlinks.
	Files Kind = iota
	// Dirs matches directories only.
	Dirs
	// Any matches every entry.
	Any
)

// Matcher is a compiled pattern.
type Matcher struct {
	pattern string
	globs   []glob.Glob
}

// Compile parses pattern. Patterns are always relative and slash-separated.
func Compile(pattern string) (*Matcher, error) {
	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
	if pattern == "" {
		return nil, fmt.Errorf("empty glob pattern")
	}
	if strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("glob pattern %q must be relative", pattern)
	}

	variants := []string{pattern}
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		variants = append(variants, rest)
	}

	m := &Matcher{pattern: pattern}
	for _, v := range variants {
		g, err := glob.Compile(v, '/')
		if err != nil {
			return nil, fmt.Errorf("compile glob %q: %w", pattern, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// String returns the source pattern.
func (m *Matcher) String() string {
	return m.pattern
}

// Match reports whether a slash-separated relative path matches.
func (m *Matcher) Match(rel string) bool {
	for _, g := range m.globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Find walks root and returns the absolute-or-root-joined paths of entries of
// the given kind whose path relative to root matches pattern, sorted.
func Find(root, pattern string, kind Kind) ([]string, error) {
	m, err := Compile(pattern)
	if err != nil {
		return nil, err
	}

	var matches []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == root {
			return nil
		}

		switch kind {
		case Files:
			if d.IsDir() {
				return nil
			}
		case Dirs:
			if !d.IsDir() {
				return nil
			}
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if m.Match(filepath.ToSlash(rel)) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(matches)
	return matches, nil
}
