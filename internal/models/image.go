// Package models defines the domain types for tagfile.
package models

import "time"

// ImageFile is a supported image found directly in the gallery folder.
type ImageFile struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParsedName is the structured view of a filename under the tag grammar.
type ParsedName struct {
	Name       string   `json:"name"`
	Base       string   `json:"base"`
	Ext        string   `json:"ext"`
	Tags       []string `json:"tags"`
	Conformant bool     `json:"conformant"`
}
