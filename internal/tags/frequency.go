// Package tags builds the tag frequency table for a folder snapshot.
package tags

import (
	"cmp"
	"slices"
	"strings"

	"github.com/starford/tagfile/internal/filename"
)

// Count is one row of the frequency table.
type Count struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Table is ordered by descending count, then ascending tag.
type Table []Count

// ProgressFunc receives the number of files folded so far and the total.
type ProgressFunc func(done, total int)

// Build folds every name through [filename.Parse] and counts lowercased
// tags. progress, if non-nil, is called after each file. The table is only
// returned once the whole fold is complete.
func Build(names []string, progress ProgressFunc) Table {
	counts := make(map[string]int)
	total := len(names)
	for i, name := range names {
		_, found := filename.Parse(name)
		for _, t := range found {
			counts[strings.ToLower(t)]++
		}
		if progress != nil {
			progress(i+1, total)
		}
	}

	out := make(Table, 0, len(counts))
	for tag, n := range counts {
		out = append(out, Count{Tag: tag, Count: n})
	}
	Sort(out)
	return out
}

// Sort orders t in place by descending count, then ascending tag.
func Sort(t Table) {
	slices.SortFunc(t, func(a, b Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Tag, b.Tag)
	})
}

// Lookup returns the count for tag, ignoring case.
func (t Table) Lookup(tag string) (int, bool) {
	key := strings.ToLower(tag)
	for _, c := range t {
		if c.Tag == key {
			return c.Count, true
		}
	}
	return 0, false
}

// Tags returns the tag names in table order.
func (t Table) Tags() []string {
	out := make([]string, len(t))
	for i, c := range t {
		out[i] = c.Tag
	}
	return out
}
