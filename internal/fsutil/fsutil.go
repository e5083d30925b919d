// Package fsutil holds the small file-system helpers shared by the build
// stages: emptying the output directory, walking source trees by extension,
// copying trees and writing files atomically.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Clean removes every entry inside dir, keeping dir itself. A missing dir
// is created.
func Clean(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return fmt.Errorf("fsutil: read %s: %w", dir, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("fsutil: remove %s: %w", e.Name(), err)
		}
	}
	return nil
}

// HasExt reports whether name ends in one of exts (case-insensitive, with dot).
func HasExt(name string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// Find walks root and returns the slash-separated paths relative to root of
// the regular files accepted by match, in lexical order. A missing root
// yields no paths.
func Find(root string, recursive bool, match func(rel string) bool) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			if path != root && !recursive {
				return fs.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if match == nil || match(rel) {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fsutil: walk %s: %w", root, err)
	}
	return out, nil
}

// CopyFile copies src to dst, creating parent directories.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("fsutil: open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("fsutil: mkdir for %s: %w", dst, err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("fsutil: create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("fsutil: copy %s: %w", src, err)
	}
	return out.Close()
}

// CopyTree copies every file under src accepted by match into dst, keeping
// relative paths. It returns the number of files copied.
func CopyTree(src, dst string, recursive bool, match func(rel string) bool) (int, error) {
	files, err := Find(src, recursive, match)
	if err != nil {
		return 0, err
	}
	for _, rel := range files {
		from := filepath.Join(src, filepath.FromSlash(rel))
		to := filepath.Join(dst, filepath.FromSlash(rel))
		if err := CopyFile(from, to); err != nil {
			return 0, err
		}
	}
	return len(files), nil
}

// WriteFile writes data to path through a temp file in the same directory
// and a rename, so readers never observe a partial file.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fsutil: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("fsutil: temp for %s: %w", path, err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("fsutil: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("fsutil: close %s: %w", path, err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return fmt.Errorf("fsutil: chmod %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("fsutil: rename %s: %w", path, err)
	}
	return nil
}

// SwapExt replaces the extension of name with ext (which includes the dot).
func SwapExt(name, ext string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}
