// Package filename implements the tag-in-filename naming convention:
//
//	<base> - [<tag>, <tag>, ...] - <counter>.<ext>
//
// Everything here is a pure function over strings; callers own all file I/O.
package filename

import (
	"slices"
	"strings"
)

// Grammar tokens.
const (
	MainSeparator = " - "
	TagOpen       = "["
	TagClose      = "]"
	TagSeparator  = ", "

	openDelim  = MainSeparator + TagOpen  // " - ["
	closeDelim = TagClose + MainSeparator // "] - "
)

// SplitExt splits name into stem and extension (the last "." suffix, dot
// included). Leading dots of a dotfile do not start an extension.
func SplitExt(name string) (stem, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || strings.Trim(name[:i], ".") == "" {
		return name, ""
	}
	return name[:i], name[i:]
}

// Parse returns the extension of name and the tags found in its tag block,
// in left-to-right order. A name without a well-formed tag block, one that
// lacks the closing "] - " after "[", yields no tags.
func Parse(name string) (ext string, tags []string) {
	stem, ext := SplitExt(name)

	openIdx := strings.Index(stem, openDelim)
	if openIdx == -1 {
		return ext, nil
	}
	start := openIdx + len(openDelim)
	closeIdx := strings.Index(stem[start:], closeDelim)
	if closeIdx == -1 {
		return ext, nil
	}

	content := strings.TrimSpace(stem[start : start+closeIdx])
	if content == "" {
		return ext, nil
	}
	for _, t := range strings.Split(content, TagSeparator) {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return ext, tags
}

// IsConformant reports whether name already follows the tagged layout: a
// non-empty extension, a non-empty base before " - [" and a "]" after it.
// The counter segment is not checked, so "a - [x] - abc.png" conforms.
func IsConformant(name string) bool {
	stem, ext := SplitExt(name)
	if ext == "" {
		return false
	}
	openIdx := strings.Index(stem, openDelim)
	if openIdx <= 0 {
		return false
	}
	return strings.Contains(stem[openIdx+len(openDelim):], TagClose)
}

// Compose joins base with the tag set, sorted ascending: "base - [a, b]",
// or "[a, b]" when base is empty. Tags are not deduplicated; an empty set
// renders "[]". The counter is added later by [Resolve].
func Compose(base string, tags []string) string {
	block := TagOpen + strings.Join(slices.Sorted(slices.Values(tags)), TagSeparator) + TagClose
	if base == "" {
		return block
	}
	return base + MainSeparator + block
}

// ComposeFile is [Compose] with ext appended unchanged.
func ComposeFile(base string, tags []string, ext string) string {
	return Compose(base, tags) + ext
}

// BaseOf derives the base segment of name: the text before the first " - [",
// or failing that before the last " - ", trimmed.
func BaseOf(name string) string {
	stem, _ := SplitExt(name)
	if i := strings.Index(stem, openDelim); i != -1 {
		return strings.TrimSpace(stem[:i])
	}
	if i := strings.LastIndex(stem, MainSeparator); i != -1 {
		return strings.TrimSpace(stem[:i])
	}
	return strings.TrimSpace(stem)
}

// HasTag reports whether tag is in tags, ignoring case.
func HasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
