package sdk

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		archive string
		files   map[string]string
		want    map[string]string
	}{
		{
			name:    "tar.xz with single top dir is stripped",
			archive: "sdk.tar.xz",
			files: map[string]string{
				"vtk-wheel-sdk-1.0-cp39-cp39/":                          "",
				"vtk-wheel-sdk-1.0-cp39-cp39/headers/cmake/vtk.cmake":   "cmake",
				"vtk-wheel-sdk-1.0-cp39-cp39/lib/libvtkCommonCore.so":   "elf",
				"vtk-wheel-sdk-1.0-cp39-cp39/lib/libvtkCommonCore.so.1": "->libvtkCommonCore.so",
			},
			want: map[string]string{
				"headers/cmake/vtk.cmake":   "cmake",
				"lib/libvtkCommonCore.so":   "elf",
				"lib/libvtkCommonCore.so.1": "elf",
			},
		},
		{
			name:    "tar.gz with several top entries is kept",
			archive: "sdk.tar.gz",
			files: map[string]string{
				"README":   "readme",
				"lib/a.so": "a",
			},
			want: map[string]string{
				"README":   "readme",
				"lib/a.so": "a",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			archive := filepath.Join(dir, tt.archive)
			writeTar(t, archive, tt.files)
			dest := filepath.Join(dir, "deps", "sdk")

			if err := NewExtractor().Extract(archive, dest); err != nil {
				t.Fatalf("Extract() error = %v", err)
			}

			for rel, content := range tt.want {
				data, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(rel)))
				if err != nil {
					t.Errorf("read %s: %v", rel, err)
					continue
				}
				if string(data) != content {
					t.Errorf("%s = %q, want %q", rel, data, content)
				}
			}

			leftovers, _ := filepath.Glob(filepath.Join(dir, "deps", ".extract-*"))
			if len(leftovers) != 0 {
				t.Errorf("staging directories left behind: %v", leftovers)
			}
		})
	}
}

func TestExtractRejects(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{name: "path traversal", files: map[string]string{"../evil": "x"}},
		{name: "absolute symlink", files: map[string]string{"link": "->/etc/passwd"}},
		{name: "escaping symlink", files: map[string]string{"a/link": "->../../outside"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			archive := filepath.Join(dir, "bad.tar.gz")
			writeTar(t, archive, tt.files)
			dest := filepath.Join(dir, "out")

			if err := NewExtractor().Extract(archive, dest); err == nil {
				t.Fatal("Extract() expected error")
			}
			if _, err := os.Stat(dest); !os.IsNotExist(err) {
				t.Error("destination created despite failure")
			}
		})
	}
}

func TestExtractFormatAndDestination(t *testing.T) {
	dir := t.TempDir()

	zipPath := filepath.Join(dir, "sdk.zip")
	mustWrite(t, zipPath, "PK")
	if err := NewExtractor().Extract(zipPath, filepath.Join(dir, "a")); err == nil {
		t.Error("Extract() expected error for unsupported format")
	}

	archive := filepath.Join(dir, "sdk.tar.gz")
	writeTar(t, archive, map[string]string{"x": "y"})
	existing := filepath.Join(dir, "existing")
	if err := os.Mkdir(existing, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := NewExtractor().Extract(archive, existing); err == nil {
		t.Error("Extract() expected error for existing destination")
	}
}
