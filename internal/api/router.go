package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tagfile/internal/gallery"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *gallery.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Files.
	r.Get("/files", h.ListFiles)
	r.Get("/files/*", h.GetFile)
	r.Get("/next-untagged", h.NextUntagged)
	r.Get("/search", h.Search)

	// Tags.
	r.Get("/tags", h.Tags)

	// Naming.
	r.Post("/compose", h.Compose)
	r.Post("/preview", h.Preview)
	r.Post("/rename", h.Rename)
	r.Post("/reload", h.Reload)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
