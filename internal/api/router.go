package api

import (
	"net/http"

	"github.com/copyleftdev/skilldex/internal/docservice"
	"github.com/copyleftdev/skilldex/internal/storage"
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// repository and rawBaseURL feed on-demand manifest generation.
func NewRouter(svc *docservice.Service, store storage.Provider, authEnabled bool, token string, sseHandler http.Handler, repository, rawBaseURL string) chi.Router {
	h := NewHandler(svc, store, repository, rawBaseURL)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Skill documents CRUD.
	r.Get("/skills", h.ListSkills)
	r.Post("/skills", h.CreateSkill)
	r.Get("/skills/*", h.GetSkill)
	r.Put("/skills/*", h.UpdateSkill)
	r.Delete("/skills/*", h.DeleteSkill)

	// Search.
	r.Get("/search", h.Search)

	// Catalog and lint.
	r.Get("/manifest", h.Manifest)
	r.Get("/validate", h.Validate)
	r.Get("/categories", h.Categories)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
