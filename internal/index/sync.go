package index

import (
	"log/slog"

	"github.com/starford/tagfile/internal/models"
	"github.com/starford/tagfile/internal/storage"
)

// Sync lists the gallery and brings the index up to date:
//   - files missing from the index are upserted
//   - rows whose file is gone from disk are deleted
//
// Tags derive from the name alone, so an indexed name never needs re-parsing.
func Sync(db FileIndex, store storage.Provider, logger *slog.Logger) error {
	files, err := store.List()
	if err != nil {
		return err
	}

	indexed, err := db.AllNames()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Name] = struct{}{}

		if _, ok := indexed[f.Name]; ok {
			continue
		}
		if err := indexFile(db, f); err != nil {
			logger.Warn("sync: index failed", slog.String("name", f.Name), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("name", f.Name))
		}
	}

	// Remove stale entries.
	for n := range indexed {
		if _, ok := disk[n]; !ok {
			if err := db.DeleteFile(n); err != nil {
				logger.Warn("sync: delete failed", slog.String("name", n), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("name", n))
			}
		}
	}

	return nil
}

func indexFile(db FileIndex, f models.ImageFile) error {
	return db.UpsertFile(RowFor(f))
}
