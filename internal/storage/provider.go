// Package storage defines the library file-system abstraction.
package storage

import "github.com/copyleftdev/skilldex/internal/models"

// Provider is the interface for library file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to library root).
	List(dir string) ([]models.FileMetadata, error)
	// ListFiles returns the names of regular, non-hidden files directly in dir.
	ListFiles(dir string) ([]string, error)
	// Read returns the raw bytes of the file at path (relative to library root).
	Read(path string) ([]byte, error)
	// Exists reports whether path refers to an existing file or directory.
	Exists(path string) bool
	// Write atomically writes content to path (relative to library root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to library root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to library root).
	Move(oldPath, newPath string) error
	// Root returns the absolute library root directory.
	Root() string
}
