// internal/app/features/clubs/routes.go
package clubs

import (
	"github.com/go-chi/chi/v5"
)

// Mount registers the club directory routes on r. The members feature
// mounts its own routes on the same router so the whole surface lives
// under one /clubs prefix. Paths are registered flat rather than through
// a /{id} subrouter so the two features can share the prefix.
func Mount(r chi.Router, h *Handler) {
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)

	r.Get("/{id}/profile", h.HandleGetProfile)
	r.Put("/{id}/profile", h.HandleUpdateProfile)
	r.Get("/{id}/metrics", h.HandleMetrics)
	r.Get("/{id}/events", h.HandleEvents)
	r.Post("/{id}/review", h.HandleReview)
	r.Delete("/{id}/review", h.HandleDeleteReview)
}
