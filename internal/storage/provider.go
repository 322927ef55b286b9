// Package storage defines the workspace file-system abstraction.
package storage

import "github.com/starford/mdtree/internal/models"

// Provider is the interface for workspace file operations. Paths are
// slash-separated and relative to the workspace root.
type Provider interface {
	// List returns metadata for every Markdown file under dir.
	List(dir string) ([]models.DocumentMetadata, error)
	// Stat returns metadata for a single document.
	Stat(path string) (models.DocumentMetadata, error)
	Read(path string) ([]byte, error)
	// Write atomically replaces the content of path, creating parent
	// directories as needed.
	Write(path string, content []byte) error
	Delete(path string) error
	Move(oldPath, newPath string) error
}
