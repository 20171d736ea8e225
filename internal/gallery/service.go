// Package gallery coordinates the folder, the index and the naming core:
// loading a snapshot, previewing names and performing renames.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/starford/tagfile/internal/apperr"
	"github.com/starford/tagfile/internal/filename"
	"github.com/starford/tagfile/internal/index"
	"github.com/starford/tagfile/internal/models"
	"github.com/starford/tagfile/internal/storage"
	"github.com/starford/tagfile/internal/tags"
)

// Default length limits above which a rename needs Force.
const (
	DefaultMaxPathLen     = 235
	DefaultMaxFilenameLen = 120
)

// EventRenamed is emitted for the new name after a successful rename.
const EventRenamed = "renamed"

// Options configures a Service.
type Options struct {
	Range          filename.Range
	MaxPathLen     int
	MaxFilenameLen int
	Logger         *slog.Logger
	// OnEvent, if set, is called with ("renamed", new) and ("deleted", old)
	// after each rename.
	OnEvent func(kind, name string)
}

// Snapshot is the loaded file list and its tag frequency table.
type Snapshot struct {
	Files []string   `json:"files"`
	Tags  tags.Table `json:"tags"`
}

// FileDetail is the full view of one gallery file.
type FileDetail struct {
	models.ParsedName
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Preview is the collision-free name a rename would produce right now.
type Preview struct {
	NewBase     string `json:"new_base"`
	Final       string `json:"final"`
	Conflict    bool   `json:"conflict"`
	PathLen     int    `json:"path_len"`
	FilenameLen int    `json:"filename_len"`
	TooLong     bool   `json:"too_long"`
}

// RenameRequest describes a rename of Current to NewBase plus a counter.
type RenameRequest struct {
	Current string
	NewBase string
	// IfMatch, when set, must equal the current content checksum.
	IfMatch string
	// Force accepts names over the length limits.
	Force bool
}

// RenameResult reports a completed rename.
type RenameResult struct {
	Old  string   `json:"old"`
	New  string   `json:"new"`
	Tags []string `json:"tags"`
}

// Service owns the in-memory snapshot of a gallery folder.
type Service struct {
	store  storage.Provider
	db     index.FileIndex
	opts   Options
	logger *slog.Logger

	mu    sync.Mutex
	files []string
	table tags.Table
}

// NewService creates a gallery service. db may be nil to run without an
// index. Zero option values fall back to the defaults.
func NewService(store storage.Provider, db index.FileIndex, opts Options) *Service {
	if opts.Range == (filename.Range{}) {
		opts.Range = filename.DefaultRange
	}
	if opts.MaxPathLen <= 0 {
		opts.MaxPathLen = DefaultMaxPathLen
	}
	if opts.MaxFilenameLen <= 0 {
		opts.MaxFilenameLen = DefaultMaxFilenameLen
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, db: db, opts: opts, logger: logger, table: tags.Table{}}
}

// Load lists the folder, rebuilds the tag table (reporting progress per
// file) and syncs the index. It holds the service lock throughout so a
// concurrent rename is either fully in the snapshot or applied after it.
func (s *Service) Load(_ context.Context, progress tags.ProgressFunc) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("gallery: load: %w", err)
	}
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	table := tags.Build(names, progress)

	if s.db != nil {
		if err := index.Sync(s.db, s.store, s.logger); err != nil {
			s.logger.Warn("gallery: index sync failed", slog.String("error", err.Error()))
		}
	}

	s.files = names
	s.table = table

	s.logger.Debug("gallery: loaded",
		slog.String("root", s.store.Root()),
		slog.Int("files", len(names)),
		slog.Int("tags", len(table)))
	return &Snapshot{Files: slices.Clone(names), Tags: slices.Clone(table)}, nil
}

// Snapshot returns a copy of the current file list and tag table.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Files: slices.Clone(s.files), Tags: slices.Clone(s.table)}
}

// Tags returns the current tag frequency table.
func (s *Service) Tags() tags.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.table)
}

// Describe parses name without touching the folder.
func Describe(name string) models.ParsedName {
	ext, found := filename.Parse(name)
	if found == nil {
		found = []string{}
	}
	return models.ParsedName{
		Name:       name,
		Base:       filename.BaseOf(name),
		Ext:        ext,
		Tags:       found,
		Conformant: filename.IsConformant(name),
	}
}

// File returns the parsed name and on-disk metadata of name.
func (s *Service) File(_ context.Context, name string) (*FileDetail, error) {
	if err := s.requireImage(name); err != nil {
		return nil, err
	}
	info, err := s.store.Stat(name)
	if err != nil {
		return nil, err
	}
	sum, err := s.store.Checksum(name)
	if err != nil {
		return nil, err
	}
	return &FileDetail{
		ParsedName: Describe(name),
		Size:       info.Size,
		Checksum:   sum,
		UpdatedAt:  info.UpdatedAt,
	}, nil
}

// ComposeFor builds the counter-less new name for current carrying tags:
// current's base joined with the sorted tag set.
func ComposeFor(current string, tagSet []string) string {
	return filename.Compose(filename.BaseOf(current), tagSet)
}

// Preview resolves the final name newBase would get if current were
// renamed now. current itself does not count as a collision. When the
// counter range is exhausted Final shows the first counter and Conflict is
// set. An empty newBase or current yields a zero Preview.
func (s *Service) Preview(_ context.Context, current, newBase string) Preview {
	newBase = strings.TrimSpace(newBase)
	if newBase == "" || current == "" {
		return Preview{}
	}
	_, ext := filename.SplitExt(current)

	p := Preview{NewBase: newBase}
	final, err := filename.Resolve(newBase, ext, s.store.Exists, current, s.opts.Range)
	if err != nil {
		final = filename.WithCounter(newBase, s.opts.Range.Min, ext)
		p.Conflict = true
	}
	p.Final = final
	p.PathLen, p.FilenameLen = s.lengths(final)
	p.TooLong = p.PathLen > s.opts.MaxPathLen || p.FilenameLen > s.opts.MaxFilenameLen
	return p
}

// Rename moves req.Current to NewBase with the lowest free counter, then
// refreshes the index and the tag table.
func (s *Service) Rename(_ context.Context, req RenameRequest) (*RenameResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newBase := strings.TrimSpace(req.NewBase)
	if newBase == "" {
		return nil, apperr.ErrEmptyName
	}
	if err := s.requireImage(req.Current); err != nil {
		return nil, err
	}
	if _, err := s.store.Stat(req.Current); err != nil {
		return nil, err
	}
	if req.IfMatch != "" {
		sum, err := s.store.Checksum(req.Current)
		if err != nil {
			return nil, err
		}
		if sum != req.IfMatch {
			return nil, apperr.ErrConflict
		}
	}

	_, ext := filename.SplitExt(req.Current)
	target := filename.WithCounter(newBase, s.opts.Range.Min, ext)
	if target == req.Current {
		return nil, apperr.ErrUnchanged
	}
	if s.store.Exists(target) {
		resolved, err := filename.Resolve(newBase, ext, s.store.Exists, "", s.opts.Range)
		if err != nil {
			return nil, fmt.Errorf("gallery: rename %s: %w", req.Current, err)
		}
		target = resolved
	}

	pathLen, nameLen := s.lengths(target)
	if !req.Force && (pathLen > s.opts.MaxPathLen || nameLen > s.opts.MaxFilenameLen) {
		return nil, fmt.Errorf("gallery: %q is %d chars (path %d; limits %d/%d): %w",
			target, nameLen, pathLen, s.opts.MaxFilenameLen, s.opts.MaxPathLen, apperr.ErrNameTooLong)
	}

	if err := s.store.Move(req.Current, target); err != nil {
		return nil, err
	}
	s.logger.Info("gallery: renamed", slog.String("old", req.Current), slog.String("new", target))

	s.reindex(req.Current, target)

	if i := slices.Index(s.files, req.Current); i >= 0 {
		s.files[i] = target
	} else {
		s.files = append(s.files, target)
	}
	s.table = tags.Build(s.files, nil)

	if s.opts.OnEvent != nil {
		s.opts.OnEvent(EventRenamed, target)
		s.opts.OnEvent(index.EventDeleted, req.Current)
	}

	_, found := filename.Parse(target)
	if found == nil {
		found = []string{}
	}
	return &RenameResult{Old: req.Current, New: target, Tags: found}, nil
}

// NextUntagged returns the first non-conformant file at or after from,
// wrapping around. An unknown from starts at the first file.
func (s *Service) NextUntagged(from string) (string, bool) {
	s.mu.Lock()
	files := slices.Clone(s.files)
	s.mu.Unlock()

	c := NewCursor(files)
	c.Seek(from)
	i, ok := c.NextUntagged()
	if !ok {
		return "", false
	}
	return files[i], true
}

// ListFiles delegates filtered listing to the index.
func (s *Service) ListFiles(_ context.Context, q index.ListQuery) ([]index.FileRow, int, error) {
	if s.db == nil {
		return nil, 0, errors.New("gallery: index not configured")
	}
	return s.db.ListFiles(q)
}

// Search delegates name search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.FileRow, error) {
	if s.db == nil {
		return nil, errors.New("gallery: index not configured")
	}
	return s.db.Search(query, limit)
}

// requireImage rejects names outside the configured image extensions, so
// other files in the folder never enter the snapshot.
func (s *Service) requireImage(name string) error {
	if !s.store.Supported(name) {
		return fmt.Errorf("gallery: %q is not a supported image: %w", name, apperr.ErrNotFound)
	}
	return nil
}

// reindex drops the old row and indexes the new name. Failures only leave
// the index stale until the next sync, so they are logged.
func (s *Service) reindex(oldName, newName string) {
	if s.db == nil {
		return
	}
	if err := s.db.DeleteFile(oldName); err != nil {
		s.logger.Warn("gallery: index delete failed", slog.String("name", oldName), slog.String("error", err.Error()))
	}
	info, err := s.store.Stat(newName)
	if err != nil {
		s.logger.Warn("gallery: stat after rename failed", slog.String("name", newName), slog.String("error", err.Error()))
		return
	}
	if err := s.db.UpsertFile(index.RowFor(info)); err != nil {
		s.logger.Warn("gallery: index upsert failed", slog.String("name", newName), slog.String("error", err.Error()))
	}
}

// lengths returns the character counts of the full path and of name.
func (s *Service) lengths(name string) (pathLen, nameLen int) {
	return utf8.RuneCountInString(filepath.Join(s.store.Root(), name)), utf8.RuneCountInString(name)
}
