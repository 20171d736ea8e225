// Package storage defines the gallery folder abstraction.
package storage

import "github.com/starford/tagfile/internal/models"

// Provider is the interface for gallery folder operations. Names are bare
// filenames relative to the gallery root; subdirectories are not scanned.
type Provider interface {
	// Root returns the absolute gallery directory.
	Root() string
	// List returns every supported image in the root, sorted case-insensitively.
	List() ([]models.ImageFile, error)
	// Stat returns metadata for a single image.
	Stat(name string) (models.ImageFile, error)
	// Checksum returns the SHA-256 of an image's content.
	Checksum(name string) (string, error)
	// Supported reports whether name has an accepted image extension.
	Supported(name string) bool
	// Exists reports whether any entry named name is present in the root.
	Exists(name string) bool
	// Move renames oldName to newName without overwriting.
	Move(oldName, newName string) error
}
