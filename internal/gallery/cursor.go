package gallery

import (
	"slices"

	"github.com/starford/tagfile/internal/filename"
)

// Cursor walks a file list cyclically. The zero value is an empty cursor.
type Cursor struct {
	files []string
	index int
}

// NewCursor returns a cursor positioned on the first file.
func NewCursor(files []string) *Cursor {
	return &Cursor{files: files}
}

// Len returns the number of files.
func (c *Cursor) Len() int {
	return len(c.files)
}

// Index returns the current position.
func (c *Cursor) Index() int {
	return c.index
}

// Current returns the file under the cursor; ok is false when empty.
func (c *Cursor) Current() (name string, ok bool) {
	if len(c.files) == 0 {
		return "", false
	}
	return c.files[c.index], true
}

// Seek moves to name and reports whether it was found.
func (c *Cursor) Seek(name string) bool {
	i := slices.Index(c.files, name)
	if i < 0 {
		return false
	}
	c.index = i
	return true
}

// Next advances one file, wrapping to the start.
func (c *Cursor) Next() (string, bool) {
	if len(c.files) == 0 {
		return "", false
	}
	c.index = (c.index + 1) % len(c.files)
	return c.files[c.index], true
}

// Prev steps back one file, wrapping to the end.
func (c *Cursor) Prev() (string, bool) {
	if len(c.files) == 0 {
		return "", false
	}
	c.index = (c.index - 1 + len(c.files)) % len(c.files)
	return c.files[c.index], true
}

// NextUntagged returns the index of the first non-conformant file starting
// at the current one and wrapping around. ok is false when every file
// already conforms.
func (c *Cursor) NextUntagged() (int, bool) {
	n := len(c.files)
	for offset := 0; offset < n; offset++ {
		i := (c.index + offset) % n
		if !filename.IsConformant(c.files[i]) {
			return i, true
		}
	}
	return 0, false
}
