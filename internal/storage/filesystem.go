package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Filesystem implements Storage rooted at a local directory, mirroring a
// published repository's on-disk layout directly.
type Filesystem struct {
	BaseDir string
}

// NewFilesystem returns a Filesystem rooted at baseDir.
func NewFilesystem(baseDir string) *Filesystem {
	return &Filesystem{BaseDir: baseDir}
}

func (f *Filesystem) full(key string) string {
	return filepath.Join(f.BaseDir, filepath.FromSlash(key))
}

// Exists implements Storage.
func (f *Filesystem) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(f.full(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Read implements Storage.
func (f *Filesystem) Read(_ context.Context, key string) ([]byte, error) {
	return os.ReadFile(f.full(key))
}

// Write implements Storage.
func (f *Filesystem) Write(_ context.Context, key string, data []byte) error {
	full := f.full(key)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for %s: %w", key, err)
	}
	return os.WriteFile(full, data, 0o644)
}

// Delete implements Storage.
func (f *Filesystem) Delete(_ context.Context, key string) error {
	err := os.Remove(f.full(key))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Mtime implements Storage.
func (f *Filesystem) Mtime(_ context.Context, key string) (float64, error) {
	info, err := os.Stat(f.full(key))
	if err != nil {
		return 0, err
	}
	return float64(info.ModTime().UnixNano()) / 1e9, nil
}

// Download implements Storage.
func (f *Filesystem) Download(_ context.Context, key, localPath string) error {
	src, err := os.Open(f.full(key))
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// List implements Storage.
func (f *Filesystem) List(_ context.Context, prefix string) ([]string, error) {
	root := f.full(prefix)
	var keys []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.BaseDir, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
