package wheel

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
)

// packSuffix is appended to the archive path while the new archive is being
// written, then stripped by the final rename.
const packSuffix = ".zip"

// Transaction is an extracted wheel. Callers edit Dir and then call Close to
// write the changes back, or Discard to drop them.
type Transaction struct {
	path string
	dir  string
	// dirs holds the slash-separated names of the directory entries the
	// archive carried, so they are written back even when not empty.
	dirs map[string]bool
	done bool
}

// Open extracts the archive at path into a new temporary directory. On
// failure nothing is left behind and the archive is not touched.
func Open(path string) (*Transaction, error) {
	dir, err := os.MkdirTemp("", "lgwheel-unpack-")
	if err != nil {
		return nil, fmt.Errorf("create working directory: %w", err)
	}

	dirs, err := extract(path, dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}

	return &Transaction{path: path, dir: dir, dirs: dirs}, nil
}

// Path returns the archive path the transaction writes back to.
func (t *Transaction) Path() string {
	return t.path
}

// Dir returns the working directory holding the extracted entries.
func (t *Transaction) Dir() string {
	return t.dir
}

// Close packs the working directory into the archive path and removes the
// working directory. The working directory is removed even if packing fails.
// Calling Close after Close or Discard is a no-op.
func (t *Transaction) Close() (err error) {
	if t.done {
		return nil
	}
	t.done = true

	defer func() {
		if rmErr := os.RemoveAll(t.dir); rmErr != nil && err == nil {
			err = fmt.Errorf("remove working directory: %w", rmErr)
		}
	}()

	intermediate := t.path + packSuffix
	if err := pack(t.dir, intermediate, t.dirs); err != nil {
		_ = os.Remove(intermediate)
		return fmt.Errorf("repack %s: %w", t.path, err)
	}

	if err := os.Rename(intermediate, strings.TrimSuffix(intermediate, packSuffix)); err != nil {
		_ = os.Remove(intermediate)
		return fmt.Errorf("replace %s: %w", t.path, err)
	}

	return nil
}

// Discard removes the working directory without writing the archive.
func (t *Transaction) Discard() error {
	if t.done {
		return nil
	}
	t.done = true

	if err := os.RemoveAll(t.dir); err != nil {
		return fmt.Errorf("remove working directory: %w", err)
	}
	return nil
}

// Update runs fn against an extracted copy of the archive at path and always
// ends the transaction afterwards: the archive is repacked whether fn
// succeeds or fails, unless fn called Discard. The working directory never
// outlives Update.
func Update(path string, fn func(tx *Transaction) error) (err error) {
	tx, err := Open(path)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, tx.Close())
	}()

	return fn(tx)
}

// extract writes every entry of the zip at src below dest and returns the
// names of its explicit directory entries.
func extract(src, dest string) (dirs map[string]bool, err error) {
	reader, err := zip.OpenReader(src)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	dirs = make(map[string]bool)
	for _, file := range reader.File {
		target, err := entryPath(dest, file.Name)
		if err != nil {
			return nil, err
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, fmt.Errorf("create directory %s: %w", file.Name, err)
			}
			rel, err := filepath.Rel(dest, target)
			if err != nil {
				return nil, err
			}
			dirs[filepath.ToSlash(rel)] = true
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("create parent directory for %s: %w", file.Name, err)
		}
		if err := extractFile(file, target); err != nil {
			return nil, fmt.Errorf("extract %s: %w", file.Name, err)
		}
	}

	return dirs, nil
}

// entryPath maps a zip entry name into dest, rejecting names that escape it.
func entryPath(dest, name string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	if clean == "/" || strings.HasPrefix(name, "/") || strings.Contains("/"+name+"/", "/../") {
		return "", fmt.Errorf("illegal entry name: %q", name)
	}
	return filepath.Join(dest, filepath.FromSlash(clean[1:])), nil
}

func extractFile(file *zip.File, target string) (err error) {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	mode := file.Mode().Perm() | 0o600
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	//nolint:gosec // wheels are produced by our own build
	_, err = io.Copy(out, rc)
	return err
}

// pack writes the tree below src into a new zip at dest. Regular files are
// stored deflated with their mode and mtime. A directory gets an entry when
// it is listed in keepDirs or is empty, so a round trip reproduces the
// original entry set. Top-level .dist-info entries are written last, as
// wheel tools do.
func pack(src, dest string, keepDirs map[string]bool) (err error) {
	type entry struct {
		rel  string
		full string
		info fs.FileInfo
	}

	var entries []entry
	walkErr := filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == src {
			return nil
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)

		if d.IsDir() && !keepDirs[rel] {
			children, err := os.ReadDir(p)
			if err != nil {
				return err
			}
			if len(children) > 0 {
				return nil
			}
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, entry{rel: rel, full: p, info: info})
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walk %s: %w", src, walkErr)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := isDistInfo(entries[i].rel), isDistInfo(entries[j].rel)
		if di != dj {
			return dj
		}
		return entries[i].rel < entries[j].rel
	})

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	zw := zip.NewWriter(out)
	defer func() {
		if closeErr := zw.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, e := range entries {
		header, err := zip.FileInfoHeader(e.info)
		if err != nil {
			return fmt.Errorf("header for %s: %w", e.rel, err)
		}
		header.Name = e.rel

		if e.info.IsDir() {
			header.Name += "/"
			header.Method = zip.Store
			if _, err := zw.CreateHeader(header); err != nil {
				return fmt.Errorf("add directory %s: %w", e.rel, err)
			}
			continue
		}

		header.Method = zip.Deflate
		w, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("add %s: %w", e.rel, err)
		}
		if err := copyInto(w, e.full); err != nil {
			return fmt.Errorf("write %s: %w", e.rel, err)
		}
	}

	return nil
}

func copyInto(w io.Writer, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}

func isDistInfo(rel string) bool {
	top, _, _ := strings.Cut(rel, "/")
	return strings.HasSuffix(top, distInfoSuffix)
}
