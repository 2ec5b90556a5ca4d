package wheel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// RecordName is the file name of the wheel manifest.
	RecordName     = "RECORD"
	distInfoSuffix = ".dist-info"
)

// Manifest is the RECORD file of a wheel, kept as an opaque string.
type Manifest struct {
	// Path is relative to the wheel root and slash-separated.
	Path    string
	Content string
}

// FindManifest returns the relative path of the single *.dist-info/RECORD
// at root.
func FindManifest(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", root, err)
	}

	var found []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), distInfoSuffix) {
			continue
		}
		info, err := os.Stat(filepath.Join(root, e.Name(), RecordName))
		if err != nil || info.IsDir() {
			continue
		}
		found = append(found, e.Name()+"/"+RecordName)
	}

	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return "", &PreconditionError{What: "manifest", Where: root, Count: 0, Err: ErrManifestNotFound}
	default:
		return "", &PreconditionError{What: "manifest", Where: root, Count: len(found), Err: ErrMultipleManifests}
	}
}

// ReadManifest locates and reads the manifest at root.
func ReadManifest(root string) (*Manifest, error) {
	rel, err := FindManifest(root)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	return &Manifest{Path: rel, Content: string(data)}, nil
}

// Restore writes the saved content back to the same relative path below
// root, replacing whatever is there.
func (m *Manifest) Restore(root string) error {
	target, err := entryPath(root, m.Path)
	if err != nil {
		return fmt.Errorf("restore manifest: %w", err)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("restore manifest: %w", err)
	}
	if err := os.WriteFile(target, []byte(m.Content), mode); err != nil {
		return fmt.Errorf("restore manifest: %w", err)
	}
	return nil
}
