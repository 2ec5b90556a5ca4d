package wheel

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Snapshot is the set of entries below a directory at one point in time.
// Paths are relative and slash-separated; directories are included.
type Snapshot struct {
	entries map[string]struct{}
}

// Take records every file and directory below root, excluding root itself.
func Take(root string) (Snapshot, error) {
	entries := make(map[string]struct{})

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		entries[filepath.ToSlash(rel)] = struct{}{}
		return nil
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %s: %w", root, err)
	}

	return Snapshot{entries: entries}, nil
}

// NewSnapshot builds a snapshot from explicit paths.
func NewSnapshot(paths ...string) Snapshot {
	entries := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		entries[p] = struct{}{}
	}
	return Snapshot{entries: entries}
}

// Has reports whether rel was present.
func (s Snapshot) Has(rel string) bool {
	_, ok := s.entries[rel]
	return ok
}

// Len returns the number of entries.
func (s Snapshot) Len() int {
	return len(s.entries)
}

// Paths returns the entries in lexical order.
func (s Snapshot) Paths() []string {
	paths := make([]string, 0, len(s.entries))
	for p := range s.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Diff returns the entries of after that are missing from before, deepest
// first so that they can be removed in order.
func Diff(after, before Snapshot) []string {
	var added []string
	for p := range after.entries {
		if !before.Has(p) {
			added = append(added, p)
		}
	}
	sortDeepestFirst(added)
	return added
}

// Prune removes entries below root. Directories are removed with their
// contents; entries already gone with an ancestor are skipped.
func Prune(root string, entries []string) error {
	ordered := append([]string(nil), entries...)
	sortDeepestFirst(ordered)

	for _, rel := range ordered {
		target, err := entryPath(root, rel)
		if err != nil {
			return fmt.Errorf("prune: %w", err)
		}
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("prune %s: %w", rel, err)
		}
	}
	return nil
}

func sortDeepestFirst(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		di, dj := strings.Count(paths[i], "/"), strings.Count(paths[j], "/")
		if di != dj {
			return di > dj
		}
		return paths[i] < paths[j]
	})
}
