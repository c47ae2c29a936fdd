package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	ah := NewAttachmentHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Tree.
	r.Get("/tree", h.GetTree)
	r.Post("/tree/refresh", h.RefreshTree)

	// Mutators.
	r.Post("/notes", h.CreateNote)
	r.Post("/folders", h.CreateFolder)
	r.Post("/items/rename", h.RenameItem)
	r.Post("/items/move", h.MoveItem)
	r.Delete("/items/*", h.DeleteItem)
	r.Post("/daily", h.OpenDaily)
	r.Post("/attachments", ah.Upload)
	r.Get("/assets/{name}", ah.ServeAsset)

	// Indexers.
	r.Get("/search", h.Search)
	r.Get("/tags", h.Tags)
	r.Get("/backlinks", h.Backlinks)
	r.Get("/headings", h.Headings)

	// Note session.
	r.Get("/session", h.SessionStatus)
	r.Post("/session/open", h.OpenNote)
	r.Put("/session/content", h.SetContent)
	r.Post("/session/save", h.SaveNote)
	r.Post("/session/close", h.CloseNote)

	// Favorites, recents, settings.
	r.Post("/favorites/toggle", h.ToggleFavorite)
	r.Get("/recents", h.Recents)
	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
