// internal/app/features/events/routes.go
package events

import (
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Post("/{id}/rsvp", h.HandleRSVP)
	r.Post("/{id}/attend", h.HandleAttend)

	return r
}
