package internal

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/tagfile/internal/index"
	"github.com/starford/tagfile/internal/testutil"
)

func TestDebouncer_CoalescesBursts(t *testing.T) {
	var calls atomic.Int32
	d := newDebouncer(30*time.Millisecond, func() { calls.Add(1) })
	defer d.stop()

	for range 5 {
		d.trigger()
	}
	time.Sleep(150 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	var calls atomic.Int32
	d := newDebouncer(30*time.Millisecond, func() { calls.Add(1) })
	d.trigger()
	d.stop()
	d.trigger()
	time.Sleep(100 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("calls = %d, want 0", n)
	}
}

func TestOpenGallery(t *testing.T) {
	dir, _ := testutil.TestGallery(t, "a - [x] - 1000.png", "b.png")
	cfg := NewDefaultConfig()
	cfg.Gallery.Path = dir
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "index.db")

	g, err := OpenGallery(cfg, testutil.QuietLogger(), true, nil)
	if err != nil {
		t.Fatalf("OpenGallery: %v", err)
	}
	defer g.Close()
	if g.DB == nil {
		t.Fatal("index not opened")
	}

	snap, err := g.Service.Load(context.Background(), nil)
	if err != nil || len(snap.Files) != 2 {
		t.Fatalf("Load = %+v, %v", snap, err)
	}
	rows, total, err := g.DB.ListFiles(index.ListQuery{Tag: "x"})
	if err != nil || total != 1 || rows[0].Name != "a - [x] - 1000.png" {
		t.Errorf("indexed rows = %+v, total = %d, err = %v", rows, total, err)
	}
}

func TestOpenGallery_WithoutIndex(t *testing.T) {
	dir, _ := testutil.TestGallery(t)
	cfg := NewDefaultConfig()
	cfg.Gallery.Path = dir
	g, err := OpenGallery(cfg, testutil.QuietLogger(), false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if g.DB != nil {
		t.Error("index opened without being asked")
	}
	if err := g.Close(); err != nil {
		t.Error(err)
	}
}

func TestOpenGallery_MissingFolder(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Gallery.Path = filepath.Join(t.TempDir(), "nope")
	if _, err := OpenGallery(cfg, testutil.QuietLogger(), false, nil); err == nil {
		t.Fatal("expected error for missing folder")
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); !errors.Is(err, errConfigRequired) {
		t.Errorf("err = %v, want errConfigRequired", err)
	}
}
