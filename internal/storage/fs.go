package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/mdtree/internal/apperr"
	"github.com/starford/mdtree/internal/checksum"
	"github.com/starford/mdtree/internal/models"
)

// Extensions recognised as Markdown documents.
var Extensions = []string{".md", ".markdown"}

// IsMarkdown reports whether name carries a Markdown extension.
func IsMarkdown(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

const tmpPattern = ".mdtree-tmp-*"

// FS implements Provider on the local file system.
type FS struct {
	root string
}

// NewFS creates a provider rooted at the given directory, which must exist.
func NewFS(root string) (*FS, error) {
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
	return &FS{root: abs}, nil
}

// Root returns the absolute workspace directory.
func (f *FS) Root() string { return f.root }

// Rel converts an absolute path under the root to a workspace path.
func (f *FS) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path outside workspace: %s", abs)
	}
	return filepath.ToSlash(rel), nil
}

// resolve maps a workspace path to an absolute one, rejecting absolute input
// and anything that escapes the root.
func (f *FS) resolve(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs := filepath.Join(f.root, cleaned)
	if abs != f.root && !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes workspace root: %s", rel)
	}
	return abs, nil
}

func notFound(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, path)
	}
	return err
}

func (f *FS) metadata(abs string, info fs.FileInfo) (models.DocumentMetadata, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return models.DocumentMetadata{}, err
	}
	rel, err := f.Rel(abs)
	if err != nil {
		return models.DocumentMetadata{}, err
	}
	return models.DocumentMetadata{
		Path:      rel,
		Checksum:  checksum.Sum(data),
		Size:      info.Size(),
		UpdatedAt: info.ModTime(),
	}, nil
}

// List walks dir and returns metadata for every Markdown file, skipping
// hidden directories and temp files.
func (f *FS) List(dir string) ([]models.DocumentMetadata, error) {
	base, err := f.resolve(dir)
	if err != nil {
		return nil, err
	}
	var out []models.DocumentMetadata
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		name := d.Name()
		if d.IsDir() {
			if p != base && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !IsMarkdown(name) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		meta, err := f.metadata(p, info)
		if err != nil {
			return err
		}
		out = append(out, meta)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", notFound(dir, err))
	}
	return out, nil
}

// Stat returns metadata for one document.
func (f *FS) Stat(path string) (models.DocumentMetadata, error) {
	abs, err := f.resolve(path)
	if err != nil {
		return models.DocumentMetadata{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.DocumentMetadata{}, fmt.Errorf("storage: stat: %w", notFound(path, err))
	}
	if info.IsDir() {
		return models.DocumentMetadata{}, fmt.Errorf("storage: %s is a directory", path)
	}
	return f.metadata(abs, info)
}

// Read returns the raw bytes of a workspace file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read: %w", notFound(path, err))
	}
	return data, nil
}

// Write writes content through a synced temp file renamed over path.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.resolve(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a document.
func (f *FS) Delete(path string) error {
	abs, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete: %w", notFound(path, err))
	}
	return nil
}

// Move renames a document, creating the target directory.
func (f *FS) Move(oldPath, newPath string) error {
	absOld, err := f.resolve(oldPath)
	if err != nil {
		return err
	}
	absNew, err := f.resolve(newPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absNew); err == nil {
		return fmt.Errorf("storage: move: %w: %s", apperr.ErrAlreadyExists, newPath)
	}
	if err := os.MkdirAll(filepath.Dir(absNew), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for move: %w", err)
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return fmt.Errorf("storage: move: %w", notFound(oldPath, err))
	}
	return nil
}
