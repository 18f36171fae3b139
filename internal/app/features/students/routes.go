// internal/app/features/students/routes.go
package students

import (
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/search", h.HandleSearch)

	r.Get("/{id}/my-clubs", h.HandleMyClubs)
	r.Get("/{id}/officer-clubs", h.HandleOfficerClubs)
	r.Get("/{id}/stats", h.HandleStats)
	r.Get("/{id}/recent-activity", h.HandleRecentActivity)
	r.Get("/{id}/upcoming-events", h.HandleUpcomingEvents)
	r.Post("/{id}/favorite", h.HandleFavorite)

	return r
}
