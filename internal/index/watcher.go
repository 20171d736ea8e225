package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/tagfile/internal/storage"
)

// Event kinds passed to EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of EventCreated, EventUpdated, EventDeleted.
type EventCallback func(kind string, name string)

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the gallery root and processes file
// change events until ctx is cancelled. It calls cb (if non-nil) after
// each successful index mutation.
//
// Only the root itself is watched; subdirectories are not part of the
// gallery. Rename events trigger a debounced reconciliation pass that
// removes stale rows and indexes files that appeared under a new name.
func Watch(ctx context.Context, db FileIndex, store storage.Provider, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	notify := func(kind, name string) {
		if cb != nil {
			cb(kind, name)
		}
	}

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			name := filepath.Base(ev.Name)
			if filepath.Dir(ev.Name) != filepath.Clean(root) || !store.Supported(name) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				info, statErr := store.Stat(name)
				if statErr != nil {
					// Directories and files already gone again land here.
					logger.Debug("watcher: stat skipped", slog.String("name", name), slog.String("error", statErr.Error()))
					continue
				}
				if idxErr := indexFile(db, info); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("name", name), slog.String("error", idxErr.Error()))
					continue
				}
				kind := EventUpdated
				if ev.Op&fsnotify.Create != 0 {
					kind = EventCreated
				}
				logger.Debug("watcher: indexed", slog.String("name", name), slog.String("op", kind))
				notify(kind, name)

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteFile(name); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("name", name), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("name", name))
				notify(EventDeleted, name)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports Rename on the old name only; the new name
				// arrives as a Create when it stays inside the root.
				if delErr := db.DeleteFile(name); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("name", name), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("name", name))
					notify(EventDeleted, name)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile removes rows without a file on disk and indexes files that
// have no row yet.
func reconcile(db FileIndex, store storage.Provider, logger *slog.Logger, notify func(kind, name string)) {
	indexed, err := db.AllNames()
	if err != nil {
		logger.Warn("reconcile: all names failed", slog.String("error", err.Error()))
		return
	}

	files, err := store.List()
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Name] = struct{}{}
		if _, ok := indexed[f.Name]; ok {
			continue
		}
		if idxErr := indexFile(db, f); idxErr == nil {
			logger.Debug("reconcile: indexed new", slog.String("name", f.Name))
			notify(EventCreated, f.Name)
		}
	}

	for n := range indexed {
		if _, ok := disk[n]; !ok {
			if delErr := db.DeleteFile(n); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("name", n))
				notify(EventDeleted, n)
			}
		}
	}
}
