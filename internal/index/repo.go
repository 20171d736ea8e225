package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/tagfile/internal/apperr"
	"github.com/starford/tagfile/internal/filename"
	"github.com/starford/tagfile/internal/models"
	"github.com/starford/tagfile/internal/tags"
)

// FileRow represents a row in the files table.
type FileRow struct {
	Name       string    `json:"name"`
	Base       string    `json:"base"`
	Ext        string    `json:"ext"`
	Tags       []string  `json:"tags"`
	Conformant bool      `json:"conformant"`
	Size       int64     `json:"size"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListQuery filters and pages ListFiles.
type ListQuery struct {
	Tag          string // case-insensitive; empty means any
	UntaggedOnly bool   // only non-conformant names
	Limit        int
	Offset       int
}

// RowFor derives the index row for an image from its name.
func RowFor(f models.ImageFile) FileRow {
	ext, found := filename.Parse(f.Name)
	if found == nil {
		found = []string{}
	}
	return FileRow{
		Name:       f.Name,
		Base:       filename.BaseOf(f.Name),
		Ext:        ext,
		Tags:       found,
		Conformant: filename.IsConformant(f.Name),
		Size:       f.Size,
		UpdatedAt:  f.UpdatedAt,
	}
}

// UpsertFile inserts or replaces a file and its tag rows within a transaction.
func (db *DB) UpsertFile(r FileRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(r.Tags)

	_, err = tx.Exec(`
		INSERT INTO files (name, base, ext, tags, conformant, size, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			base       = excluded.base,
			ext        = excluded.ext,
			tags       = excluded.tags,
			conformant = excluded.conformant,
			size       = excluded.size,
			updated_at = excluded.updated_at
	`, r.Name, r.Base, r.Ext, string(tagsJSON), r.Conformant, r.Size, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert file: %w", err)
	}

	// Replace tag rows: delete old then bulk insert.
	if _, err := tx.Exec(`DELETE FROM file_tags WHERE name = ?`, r.Name); err != nil {
		return fmt.Errorf("index: clear tags: %w", err)
	}
	if len(r.Tags) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO file_tags (name, pos, tag) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare tag insert: %w", err)
		}
		defer stmt.Close()
		for i, t := range r.Tags {
			if _, err := stmt.Exec(r.Name, i, strings.ToLower(t)); err != nil {
				return fmt.Errorf("index: insert tag: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteFile removes a file and its tag rows.
func (db *DB) DeleteFile(name string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM file_tags WHERE name = ?`, name)
	_, _ = tx.Exec(`DELETE FROM files WHERE name = ?`, name)

	return tx.Commit()
}

const fileColumns = `name, base, ext, tags, conformant, size, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (FileRow, error) {
	var r FileRow
	var tagsJSON string
	if err := s.Scan(&r.Name, &r.Base, &r.Ext, &tagsJSON, &r.Conformant, &r.Size, &r.UpdatedAt); err != nil {
		return FileRow{}, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &r.Tags); err != nil || r.Tags == nil {
		r.Tags = []string{}
	}
	return r, nil
}

// GetFile returns the indexed row for name, or apperr.ErrNotFound.
func (db *DB) GetFile(name string) (*FileRow, error) {
	row := db.conn.QueryRow(`SELECT `+fileColumns+` FROM files WHERE name = ?`, name)
	r, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get file: %w", err)
	}
	return &r, nil
}

// ListFiles returns a page of files ordered by name (case-insensitive) and
// the total number of matches.
func (db *DB) ListFiles(q ListQuery) ([]FileRow, int, error) {
	if q.Limit <= 0 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	var where []string
	var args []any
	if q.Tag != "" {
		where = append(where, `name IN (SELECT name FROM file_tags WHERE tag = ?)`)
		args = append(args, strings.ToLower(q.Tag))
	}
	if q.UntaggedOnly {
		where = append(where, `conformant = 0`)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM files`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count files: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+fileColumns+` FROM files`+clause+
		` ORDER BY name COLLATE NOCASE, name LIMIT ? OFFSET ?`, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list files: %w", err)
	}
	defer rows.Close()

	out := []FileRow{}
	for rows.Next() {
		r, err := scanFile(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// TagCounts returns the persisted tag frequency table, ordered like tags.Table.
func (db *DB) TagCounts() (tags.Table, error) {
	rows, err := db.conn.Query(`
		SELECT tag, count(*) AS n
		FROM file_tags
		GROUP BY tag
		ORDER BY n DESC, tag ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("index: tag counts: %w", err)
	}
	defer rows.Close()

	out := tags.Table{}
	for rows.Next() {
		var c tags.Count
		if err := rows.Scan(&c.Tag, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Search returns files whose name contains query, ignoring ASCII case.
func (db *DB) Search(query string, limit int) ([]FileRow, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + escapeLike(query) + "%"
	rows, err := db.conn.Query(`SELECT `+fileColumns+` FROM files
		WHERE name LIKE ? ESCAPE '\'
		ORDER BY name COLLATE NOCASE
		LIMIT ?`, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	out := []FileRow{}
	for rows.Next() {
		r, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AllNames returns every indexed filename.
func (db *DB) AllNames() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT name FROM files`)
	if err != nil {
		return nil, fmt.Errorf("index: all names: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out[n] = struct{}{}
	}
	return out, rows.Err()
}

// escapeLike escapes LIKE wildcards; filenames routinely contain "_".
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
