package repair

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vtk-lookingglass/lgwheel/internal/config"
)

// elfBytes is long enough for filetype to recognize an ELF header.
var elfBytes = "\x7fELF\x02\x01\x01" + strings.Repeat("\x00", 64)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestFindLibraries(t *testing.T) {
	sdk := t.TempDir()
	writeFile(t, filepath.Join(sdk, "build", "lib.linux-x86_64-3.9", "vtkmodules", "vtkCommonCore.so"), elfBytes)
	writeFile(t, filepath.Join(sdk, "build", "lib.linux-x86_64-3.9", "vtkmodules", "__init__.py"), "")
	writeFile(t, filepath.Join(sdk, "build", "temp", "nested", "vtkmodules", "other.so"), elfBytes)

	libs, err := FindLibraries(sdk, config.DefaultLibraryGlob)
	if err != nil {
		t.Fatalf("FindLibraries() error = %v", err)
	}
	if len(libs) != 1 || filepath.Base(libs[0]) != "vtkCommonCore.so" {
		t.Errorf("FindLibraries() = %v", libs)
	}

	libs, err = FindLibraries(sdk, "build/**/*.so")
	if err != nil {
		t.Fatalf("FindLibraries(**) error = %v", err)
	}
	if len(libs) != 2 {
		t.Errorf("FindLibraries(**) = %v, want 2 matches", libs)
	}
}

func TestFindLibrariesNone(t *testing.T) {
	_, err := FindLibraries(t.TempDir(), config.DefaultLibraryGlob)
	if !errors.Is(err, ErrNoLibraries) {
		t.Errorf("expected ErrNoLibraries, got %v", err)
	}
	var cfgErr *config.Error
	if !errors.As(err, &cfgErr) || cfgErr.Field != "sdk.install_path" {
		t.Errorf("expected *config.Error for sdk.install_path, got %v", err)
	}

	_, err = FindLibraries(filepath.Join(t.TempDir(), "missing"), config.DefaultLibraryGlob)
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected *config.Error for missing root, got %v", err)
	}
}

func TestInjectNeverOverwrites(t *testing.T) {
	src := t.TempDir()
	lib := filepath.Join(src, "libvtkLookingGlass.so")
	writeFile(t, lib, elfBytes)

	dest := filepath.Join(t.TempDir(), "vtkmodules")

	first, err := Inject([]string{lib}, dest, nil)
	if err != nil {
		t.Fatalf("first Inject() error = %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("first Inject() wrote %v", first)
	}

	writeFile(t, lib, elfBytes+"changed")

	second, err := Inject([]string{lib}, dest, nil)
	if err != nil {
		t.Fatalf("second Inject() error = %v", err)
	}
	if len(second) != 0 {
		t.Errorf("second Inject() wrote %v, want nothing", second)
	}

	data, err := os.ReadFile(filepath.Join(dest, "libvtkLookingGlass.so"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != elfBytes {
		t.Error("existing library was overwritten")
	}
}

func TestInjectFirstNameWins(t *testing.T) {
	a := filepath.Join(t.TempDir(), "dup.so")
	b := filepath.Join(t.TempDir(), "dup.so")
	writeFile(t, a, "first")
	writeFile(t, b, "second")
	dest := t.TempDir()

	got, err := Inject([]string{a, b}, dest, nil)
	if err != nil {
		t.Fatalf("Inject() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Inject() wrote %v", got)
	}
	data, _ := os.ReadFile(filepath.Join(dest, "dup.so"))
	if string(data) != "first" {
		t.Errorf("dup.so = %q, want first", data)
	}
}

func TestInjectMissingSource(t *testing.T) {
	_, err := Inject([]string{filepath.Join(t.TempDir(), "gone.so")}, t.TempDir(), nil)
	if err == nil {
		t.Error("Inject() expected error for missing library")
	}
}

func TestIsSharedObject(t *testing.T) {
	dir := t.TempDir()
	elf := filepath.Join(dir, "lib.so")
	text := filepath.Join(dir, "notes.txt")
	writeFile(t, elf, elfBytes)
	writeFile(t, text, "plain text")

	if !isSharedObject(elf) {
		t.Error("ELF file not recognized")
	}
	if isSharedObject(text) {
		t.Error("text file recognized as shared object")
	}
	if isSharedObject(filepath.Join(dir, "missing")) {
		t.Error("missing file recognized as shared object")
	}
}
