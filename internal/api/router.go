package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mdtree/internal/docservice"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes = 10 << 20

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler, maxBody int64) chi.Router {
	h := NewHandler(svc, maxBody)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents CRUD.
	r.Get("/docs", h.ListDocuments)
	r.Post("/docs", h.CreateDocument)
	r.Get("/docs/*", h.GetDocument)
	r.Put("/docs/*", h.UpdateDocument)
	r.Delete("/docs/*", h.DeleteDocument)

	// Structure.
	r.Get("/outline/*", h.Outline)
	r.Get("/backlinks/*", h.Backlinks)
	r.Get("/search", h.Search)

	// Tree operations.
	r.Post("/render", h.Render)
	r.Post("/transform/*", h.Transform)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
