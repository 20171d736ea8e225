package index

import (
	"context"

	"github.com/starford/tagfile/internal/tags"
)

// FileIndex defines the interface for gallery indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type FileIndex interface {
	UpsertFile(r FileRow) error
	DeleteFile(name string) error
	GetFile(name string) (*FileRow, error)
	ListFiles(q ListQuery) ([]FileRow, int, error)
	TagCounts() (tags.Table, error)
	Search(query string, limit int) ([]FileRow, error)
	AllNames() (map[string]struct{}, error)
	Ping(ctx context.Context) error
	Close() error
}

// Verify *DB satisfies FileIndex at compile time.
var _ FileIndex = (*DB)(nil)
