package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tagfile/internal/gallery"
	"github.com/starford/tagfile/internal/index"
)

// Handler holds API route handlers.
type Handler struct {
	svc *gallery.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *gallery.Service) *Handler {
	return &Handler{svc: svc}
}

// fileName extracts the file name from the URL (everything after /files/).
// Names carry spaces and brackets, so clients usually percent-encode them.
func fileName(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListFiles handles GET /api/files.
//
//	@Summary		List indexed images with optional filtering
//	@Tags			files
//	@Produce		json
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Param			tag			query		string	false	"Filter by tag (case-insensitive)"
//	@Param			untagged	query		bool	false	"Only names outside the tag grammar"
//	@Success		200			{object}	FileListResponse
//	@Security		BearerAuth
//	@Router			/files [get]
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	untagged, _ := strconv.ParseBool(q.Get("untagged"))

	items, total, err := h.svc.ListFiles(r.Context(), index.ListQuery{
		Tag:          q.Get("tag"),
		UntaggedOnly: untagged,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		writeError(w, "list files", err)
		return
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: items, Total: total})
}

// GetFile handles GET /api/files/*.
//
//	@Summary		Get the parsed name and metadata of one image
//	@Tags			files
//	@Produce		json
//	@Param			name	path		string	true	"File name"
//	@Success		200		{object}	FileDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files/{name} [get]
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	name := fileName(r)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	detail, err := h.svc.File(r.Context(), name)
	if err != nil {
		writeError(w, "get file", err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(detail.Checksum))
	writeJSON(w, http.StatusOK, detail)
}

// Tags handles GET /api/tags.
//
//	@Summary		Tag frequency table of the loaded folder
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagsResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) Tags(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, TagsResponse{Tags: h.svc.Tags()})
}

// Compose handles POST /api/compose.
//
//	@Summary		Compose the counter-less name for a tag set
//	@Tags			naming
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ComposeRequest	true	"Current name and tags"
//	@Success		200		{object}	ComposeResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/compose [post]
func (h *Handler) Compose(w http.ResponseWriter, r *http.Request) {
	var req ComposeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, ComposeResponse{NewBase: gallery.ComposeFor(req.Current, req.Tags)})
}

// Preview handles POST /api/preview.
//
//	@Summary		Preview the collision-free final name
//	@Tags			naming
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PreviewRequest	true	"Current name and new base"
//	@Success		200		{object}	Preview
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/preview [post]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Preview(r.Context(), req.Current, req.NewBase))
}

// Rename handles POST /api/rename.
//
//	@Summary		Rename an image to a new base plus the lowest free counter
//	@Tags			naming
//	@Accept			json
//	@Produce		json
//	@Param			If-Match	header		string			false	"SHA-256 checksum of the current file"
//	@Param			body		body		RenameRequest	true	"Rename request"
//	@Success		200			{object}	RenameResult
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/rename [post]
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	// A present but empty tags list clears every tag.
	newBase := req.NewBase
	if strings.TrimSpace(newBase) == "" && req.Tags != nil {
		newBase = gallery.ComposeFor(req.Current, req.Tags)
	}

	res, err := h.svc.Rename(r.Context(), gallery.RenameRequest{
		Current: req.Current,
		NewBase: newBase,
		IfMatch: strings.Trim(r.Header.Get("If-Match"), `"`),
		Force:   req.Force,
	})
	if err != nil {
		writeError(w, "rename", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// NextUntagged handles GET /api/next-untagged.
//
//	@Summary		Next file (inclusive, wrapping) whose name lacks tags
//	@Tags			files
//	@Produce		json
//	@Param			from	query		string	false	"Start at this file"
//	@Success		200		{object}	NextUntaggedResponse
//	@Security		BearerAuth
//	@Router			/next-untagged [get]
func (h *Handler) NextUntagged(w http.ResponseWriter, r *http.Request) {
	name, ok := h.svc.NextUntagged(r.URL.Query().Get("from"))
	writeJSON(w, http.StatusOK, NextUntaggedResponse{Name: name, Found: ok})
}

// Search handles GET /api/search.
//
//	@Summary		Substring search over file names
//	@Tags			files
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Reload handles POST /api/reload.
//
//	@Summary		Re-read the folder and rebuild the tag table
//	@Tags			files
//	@Produce		json
//	@Success		200	{object}	ReloadResponse
//	@Security		BearerAuth
//	@Router			/reload [post]
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Load(r.Context(), nil)
	if err != nil {
		writeError(w, "reload", err)
		return
	}
	writeJSON(w, http.StatusOK, ReloadResponse{Files: len(snap.Files), Tags: len(snap.Tags)})
}
