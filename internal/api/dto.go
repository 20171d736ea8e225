package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/tagfile/internal/gallery"
	"github.com/starford/tagfile/internal/index"
	"github.com/starford/tagfile/internal/tags"
)

// ComposeRequest is the request body for composing a new name.
type ComposeRequest struct {
	Current string   `json:"current" example:"beach.png" validate:"required"`
	Tags    []string `json:"tags" example:"sun,sea"`
}

// Validate validates the compose request.
func (r *ComposeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Current, validation.Required),
		validation.Field(&r.Tags, validation.Each(validation.Required)),
	)
}

// ComposeResponse carries the counter-less new name.
type ComposeResponse struct {
	NewBase string `json:"new_base" example:"beach - [sea, sun]" validate:"required"`
}

// PreviewRequest is the request body for previewing a rename.
type PreviewRequest struct {
	Current string `json:"current" example:"beach.png" validate:"required"`
	NewBase string `json:"new_base" example:"beach - [sea, sun]"`
}

// Validate validates the preview request.
func (r *PreviewRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Current, validation.Required),
	)
}

// RenameRequest is the request body for renaming a file. The new base may
// be given directly or composed from Tags; an empty Tags list renders "[]".
type RenameRequest struct {
	Current string   `json:"current" example:"beach.png" validate:"required"`
	NewBase string   `json:"new_base,omitempty" example:"beach - [sea, sun]"`
	Tags    []string `json:"tags,omitempty"`
	Force   bool     `json:"force,omitempty"`
}

// Validate validates the rename request. An empty NewBase is left to the
// gallery service, which reports it as an empty name.
func (r *RenameRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Current, validation.Required),
		validation.Field(&r.Tags, validation.Each(validation.Required)),
	)
}

// Preview is the preview response (aliased from the domain layer).
type Preview = gallery.Preview

// RenameResult is the rename response (aliased from the domain layer).
type RenameResult = gallery.RenameResult

// FileDetail is the single-file response (aliased from the domain layer).
type FileDetail = gallery.FileDetail

// FileRow is an indexed file in list responses (aliased from the index).
type FileRow = index.FileRow

// FileListResponse wraps paginated file listings.
type FileListResponse struct {
	Files []FileRow `json:"files" validate:"required"`
	Total int       `json:"total" example:"42" validate:"required"`
}

// TagsResponse wraps the tag frequency table.
type TagsResponse struct {
	Tags tags.Table `json:"tags" validate:"required"`
}

// NextUntaggedResponse names the next file still lacking tags.
type NextUntaggedResponse struct {
	Name  string `json:"name" example:"beach.png"`
	Found bool   `json:"found"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []FileRow `json:"results" validate:"required"`
}

// ReloadResponse reports the snapshot size after a reload.
type ReloadResponse struct {
	Files int `json:"files"`
	Tags  int `json:"tags"`
}
