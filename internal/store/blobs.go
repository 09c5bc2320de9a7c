package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidiaz1251/apostolV2/internal/domain"
)

// BlobDir implements domain.BlobStore on top of a local directory.
type BlobDir struct {
	root string
}

// NewBlobDir roots blob paths at root.
func NewBlobDir(root string) *BlobDir {
	return &BlobDir{root: root}
}

// Root returns the base directory.
func (b *BlobDir) Root() string { return b.root }

func (b *BlobDir) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes blob root: %s", rel)
	}
	return filepath.Join(b.root, clean), nil
}

func (b *BlobDir) EnsureDir(dir string) error {
	full, err := b.resolve(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, 0755); err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}
	return nil
}

// WriteBlob writes atomically: temp file then rename.
func (b *BlobDir) WriteBlob(path string, data []byte) error {
	full, err := b.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return err
	}

	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (b *BlobDir) ReadBlob(path string) ([]byte, error) {
	full, err := b.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrBlobNotFound
	}
	return data, err
}

// RemoveAll deletes dir and everything below it.
func (b *BlobDir) RemoveAll(dir string) error {
	full, err := b.resolve(dir)
	if err != nil {
		return err
	}
	return os.RemoveAll(full)
}

// Exists reports whether a blob is present at path.
func (b *BlobDir) Exists(path string) bool {
	full, err := b.resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && !info.IsDir()
}
