package internal

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/tagfile/internal/gallery"
	"github.com/starford/tagfile/internal/index"
	"github.com/starford/tagfile/internal/storage"
)

var errConfigRequired = errors.New("config is required")

// Gallery bundles a gallery service with the resources it owns.
type Gallery struct {
	Service *gallery.Service
	Store   *storage.FS
	// DB is nil when the gallery was opened without the index.
	DB *index.DB
}

// OpenGallery wires storage, the optional SQLite index and the gallery
// service from cfg. onEvent, if set, receives rename events. The snapshot
// is not loaded yet.
func OpenGallery(cfg *Config, logger *slog.Logger, withIndex bool, onEvent func(kind, name string)) (*Gallery, error) {
	if cfg == nil {
		return nil, errConfigRequired
	}
	store, err := storage.NewFS(cfg.Gallery.Path, cfg.Gallery.Extensions)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	g := &Gallery{Store: store}
	// idx stays a nil interface without the index; a nil *index.DB would not.
	var idx index.FileIndex
	if withIndex {
		db, err := index.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		g.DB = db
		idx = db
	}

	opts := cfg.Rename.GalleryOptions(logger)
	opts.OnEvent = onEvent
	g.Service = gallery.NewService(store, idx, opts)
	return g, nil
}

// Close releases the index, if open.
func (g *Gallery) Close() error {
	if g.DB == nil {
		return nil
	}
	return g.DB.Close()
}
