package index

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/tagfile/internal/apperr"
	"github.com/starford/tagfile/internal/storage"
)

// watcherTestEnv sets up a gallery dir, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	return store.Root(), store, testDB(t)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func indexed(db *DB, name string) bool {
	_, err := db.GetFile(name)
	return err == nil
}

func TestSync_AddsAndRemoves(t *testing.T) {
	dir, store, db := watcherTestEnv(t)
	upsertNames(t, db, "stale.png")
	_ = os.WriteFile(filepath.Join(dir, "a - [x] - 1000.png"), []byte("a"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("n"), 0o644)

	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !indexed(db, "a - [x] - 1000.png") {
		t.Error("image not indexed")
	}
	if indexed(db, "notes.txt") {
		t.Error("unsupported file indexed")
	}
	if _, err := db.GetFile("stale.png"); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("stale row not removed")
	}
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string

	go Watch(ctx, db, store, dir, quietLogger(), func(kind, name string) {
		mu.Lock()
		events = append(events, kind+":"+name)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "new.png"), []byte("png"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return indexed(db, "new.png")
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:new.png" {
				return true
			}
		}
		return false
	}, "expected created:new.png callback")
}

func TestWatcher_IgnoresUnsupported(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, db, store, dir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "marker.png"), []byte("x"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return indexed(db, "marker.png")
	}, "marker not indexed")
	if indexed(db, "readme.txt") {
		t.Error("unsupported file indexed")
	}
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(dir, "del.png"), []byte("x"), 0o644)
	_ = Sync(db, store, quietLogger())
	if !indexed(db, "del.png") {
		t.Fatal("precondition: file should be indexed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, dir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(dir, "del.png"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return !indexed(db, "del.png")
	}, "deleted file still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	dir, store, db := watcherTestEnv(t)

	_ = os.WriteFile(filepath.Join(dir, "old.png"), []byte("x"), 0o644)
	_ = Sync(db, store, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Watch(ctx, db, store, dir, quietLogger(), nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Rename(filepath.Join(dir, "old.png"), filepath.Join(dir, "old - [a] - 1000.png"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return !indexed(db, "old.png") && indexed(db, "old - [a] - 1000.png")
	}, "rename reconciliation failed: old name should be removed and new name indexed")
}
