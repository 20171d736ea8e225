package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/starford/tagfile/internal/apperr"
	"github.com/starford/tagfile/internal/checksum"
	"github.com/starford/tagfile/internal/filename"
	"github.com/starford/tagfile/internal/models"
)

// DefaultExtensions are the image extensions recognised when none are configured.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".tif", ".webp"}

var _ Provider = (*FS)(nil)

// FS implements Provider backed by a local directory.
type FS struct {
	root string // absolute path to gallery directory
	exts map[string]struct{}
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist. exts are matched case-insensitively;
// nil selects DefaultExtensions.
func NewFS(root string, exts []string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	if exts == nil {
		exts = DefaultExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[strings.ToLower(e)] = struct{}{}
	}
	return &FS{root: abs, exts: set}, nil
}

// Root returns the absolute gallery directory.
func (f *FS) Root() string {
	return f.root
}

// Supported reports whether name carries one of the configured extensions.
func (f *FS) Supported(name string) bool {
	_, ext := filename.SplitExt(name)
	_, ok := f.exts[strings.ToLower(ext)]
	return ok
}

// safePath resolves a bare filename against the gallery root and rejects
// anything that would leave it or reach into a subdirectory.
func (f *FS) safePath(name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("storage: name %q: %w", name, apperr.ErrInvalidName)
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return "", fmt.Errorf("storage: name %q contains a path separator: %w", name, apperr.ErrInvalidName)
	}
	return filepath.Join(f.root, name), nil
}

// List returns every supported image file in the root, sorted by name
// ignoring case.
func (f *FS) List() ([]models.ImageFile, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	out := make([]models.ImageFile, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !f.Supported(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Entry vanished between ReadDir and Info.
			continue
		}
		out = append(out, models.ImageFile{
			Name:      e.Name(),
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
	}
	slices.SortStableFunc(out, func(a, b models.ImageFile) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out, nil
}

// Stat returns size and modification time for name.
func (f *FS) Stat(name string) (models.ImageFile, error) {
	abs, err := f.regularFile(name)
	if err != nil {
		return models.ImageFile{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.ImageFile{}, fmt.Errorf("storage: stat %s: %w", name, err)
	}
	return models.ImageFile{
		Name:      name,
		Size:      info.Size(),
		UpdatedAt: info.ModTime(),
	}, nil
}

// Checksum returns the SHA-256 of the content of name.
func (f *FS) Checksum(name string) (string, error) {
	abs, err := f.regularFile(name)
	if err != nil {
		return "", err
	}
	return checksum.File(abs)
}

// regularFile resolves name and checks that it is an existing regular file.
func (f *FS) regularFile(name string) (string, error) {
	abs, err := f.safePath(name)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("storage: stat %s: %w", name, apperr.ErrNotFound)
		}
		return "", fmt.Errorf("storage: stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("storage: %s is not a regular file: %w", name, apperr.ErrInvalidName)
	}
	return abs, nil
}

// Exists reports whether an entry named name exists in the root. Invalid
// names are reported as existing so they are never chosen as rename targets.
func (f *FS) Exists(name string) bool {
	abs, err := f.safePath(name)
	if err != nil {
		return true
	}
	_, err = os.Lstat(abs)
	return err == nil
}

// Move renames a file within the gallery. It refuses to replace an
// existing entry.
func (f *FS) Move(oldName, newName string) error {
	absOld, err := f.safePath(oldName)
	if err != nil {
		return err
	}
	absNew, err := f.safePath(newName)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(absOld); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("storage: move %s: %w", oldName, apperr.ErrNotFound)
		}
		return fmt.Errorf("storage: move: %w", err)
	}
	if _, err := os.Lstat(absNew); err == nil {
		return fmt.Errorf("storage: move to %s: %w", newName, apperr.ErrAlreadyExists)
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return fmt.Errorf("storage: move: %w", err)
	}
	return nil
}
