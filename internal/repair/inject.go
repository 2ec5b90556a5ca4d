package repair

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"
	"github.com/vtk-lookingglass/lgwheel/internal/config"
	"github.com/vtk-lookingglass/lgwheel/internal/pathglob"
)

// sniffLen covers the ELF and Mach-O headers filetype inspects.
const sniffLen = 262

// FindLibraries returns the files below root matching pattern.
func FindLibraries(root, pattern string) ([]string, error) {
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, &config.Error{
			Field:  "sdk.install_path",
			Env:    config.EnvSDKInstallPath,
			Reason: fmt.Sprintf("%s is not a directory", root),
		}
	}

	libs, err := pathglob.Find(root, pattern, pathglob.Files)
	if err != nil {
		return nil, fmt.Errorf("find libraries: %w", err)
	}
	if len(libs) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoLibraries, &config.Error{
			Field:  "sdk.install_path",
			Env:    config.EnvSDKInstallPath,
			Reason: "has no files matching " + filepath.Join(root, pattern),
		})
	}
	return libs, nil
}

// Inject copies each library into destDir under its base name. Existing
// files are never overwritten, so the first library with a given name wins.
// It returns the destination paths it wrote.
func Inject(libs []string, destDir string, logger config.Logger) ([]string, error) {
	logger = config.OrNop(logger)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", destDir, err)
	}

	var injected []string
	for _, lib := range libs {
		dest := filepath.Join(destDir, filepath.Base(lib))

		if _, err := os.Lstat(dest); err == nil {
			logger.Debug("library already present", "name", filepath.Base(lib))
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return injected, fmt.Errorf("check %s: %w", dest, err)
		}

		if !isSharedObject(lib) {
			logger.Warn("injecting file that is not a shared object", "path", lib)
		}

		if err := copyFile(lib, dest); err != nil {
			return injected, fmt.Errorf("inject %s: %w", filepath.Base(lib), err)
		}
		injected = append(injected, dest)
	}

	return injected, nil
}

// isSharedObject reports whether path starts with an ELF or Mach-O header.
// Unreadable files count as not shared objects.
func isSharedObject(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(f, head)
	kind, err := filetype.Match(head[:n])
	if err != nil {
		return false
	}
	return kind.Extension == "elf" || kind.Extension == "macho"
}

// copyFile copies src to a new file dst. It fails if dst exists.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
