package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	err := app.Run(context.Background(), append([]string{"tagfile", "--config", missing}, args...))
	return out.String(), err
}

func galleryDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte(n), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestParseCommand(t *testing.T) {
	out, err := runApp(t, "parse", "beach - [sun, sea] - 1000.jpg")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, want := range []string{"base:       beach", "tags:       sun, sea", "conformant: true"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := runApp(t, "parse"); err == nil {
		t.Error("parse without names should fail")
	}
}

func TestCheckCommand(t *testing.T) {
	dir := galleryDir(t, "a - [x] - 1000.png", "b.png", "c.jpg")
	out, err := runApp(t, "check", "--dir", dir)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if out != "b.png\nc.jpg\n" {
		t.Errorf("check output = %q", out)
	}
}

func TestTagsCommand(t *testing.T) {
	dir := galleryDir(t, "a - [x, y] - 1000.png", "b - [X] - 1000.png")
	out, err := runApp(t, "tags", "-q", "--dir", dir)
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[0], "x") || !strings.Contains(lines[0], "2") {
		t.Errorf("tags output = %q", out)
	}
}

func TestPreviewAndRenameCommands(t *testing.T) {
	dir := galleryDir(t, "beach.png", "beach - [sea, sun] - 1000.png")

	out, err := runApp(t, "preview", "--dir", dir, "-t", "sun", "-t", "sea", "beach.png")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if strings.TrimSpace(out) != "beach - [sea, sun] - 1001.png" {
		t.Errorf("preview output = %q", out)
	}

	out, err = runApp(t, "rename", "--dir", dir, "--dry-run", "-t", "sun", "beach.png")
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "beach.png")); statErr != nil {
		t.Fatal("dry run must not rename")
	}

	out, err = runApp(t, "rename", "--dir", dir, "-t", "sun", "-t", "sea", "beach.png")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if !strings.Contains(out, "-> beach - [sea, sun] - 1001.png") {
		t.Errorf("rename output = %q", out)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "beach - [sea, sun] - 1001.png")); statErr != nil {
		t.Error("renamed file missing")
	}
}

func TestRenameCommand_ClearTags(t *testing.T) {
	dir := galleryDir(t, "beach - [sea] - 1000.png")
	out, err := runApp(t, "rename", "--dir", dir, "--clear-tags", "beach - [sea] - 1000.png")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if !strings.Contains(out, "-> beach - [] - 1000.png") {
		t.Errorf("rename output = %q", out)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "beach - [] - 1000.png")); statErr != nil {
		t.Error("renamed file missing")
	}
}

func TestRenameCommand_NeedsNewName(t *testing.T) {
	dir := galleryDir(t, "a.png")
	cases := [][]string{
		{"rename", "--dir", dir, "a.png"},
		{"rename", "--dir", dir, "--clear-tags", "-t", "x", "a.png"},
	}
	for _, args := range cases {
		if _, err := runApp(t, args...); err == nil {
			t.Errorf("%q should fail", args)
		}
	}
	if _, statErr := os.Stat(filepath.Join(dir, "a.png")); statErr != nil {
		t.Error("a.png must be untouched")
	}
}

func TestLoadConfig_DirOverride(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	var got string
	cmd := &cli.Command{
		Name: "tagfile",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config"},
			dirFlag(),
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			got = cfg.Gallery.Path
			return nil
		},
	}
	if err := cmd.Run(context.Background(), []string{"tagfile", "--config", missing, "--dir", "/srv/pics"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != "/srv/pics" {
		t.Errorf("gallery path = %q, want /srv/pics", got)
	}
}

func TestServeCommand_HasDirFlag(t *testing.T) {
	for _, f := range serveCommand().Flags {
		for _, n := range f.Names() {
			if n == "dir" {
				return
			}
		}
	}
	t.Error("serve has no --dir flag")
}
