package sdk

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// writeTar writes a tarball at path, compressed by its suffix. Names ending
// in "/" become directories; values starting with "->" become symlinks.
func writeTar(t *testing.T, path string, files map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer f.Close()

	var w io.WriteCloser
	switch {
	case strings.HasSuffix(path, ".tar.xz"):
		w, err = xz.NewWriter(f)
		if err != nil {
			t.Fatalf("failed to create xz writer: %v", err)
		}
	default:
		w = gzip.NewWriter(f)
	}

	tw := tar.NewWriter(w)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		content := files[name]
		header := &tar.Header{Name: name, Mode: 0o644, Typeflag: tar.TypeReg, Size: int64(len(content))}
		switch {
		case strings.HasSuffix(name, "/"):
			header = &tar.Header{Name: name, Mode: 0o755, Typeflag: tar.TypeDir}
		case strings.HasPrefix(content, "->"):
			header = &tar.Header{Name: name, Mode: 0o777, Typeflag: tar.TypeSymlink, Linkname: strings.TrimPrefix(content, "->")}
		}

		if err := tw.WriteHeader(header); err != nil {
			t.Fatalf("failed to write header for %s: %v", name, err)
		}
		if header.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(content)); err != nil {
				t.Fatalf("failed to write content for %s: %v", name, err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close compressor: %v", err)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
