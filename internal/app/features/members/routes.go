// internal/app/features/members/routes.go
package members

import (
	"github.com/go-chi/chi/v5"
)

// Mount registers the membership routes on the shared /clubs router.
func Mount(r chi.Router, h *Handler) {
	r.Get("/{id}/members", h.HandleList)
	r.Post("/{id}/members", h.HandleAdd)
	r.Delete("/{id}/members/{memberId}", h.HandleRemove)

	r.Post("/{id}/join", h.HandleJoin)
	r.Post("/{id}/leave", h.HandleLeave)
	r.Post("/{id}/kick", h.HandleKick)
	r.Post("/{id}/promote", h.HandlePromote)
	r.Post("/{id}/demote", h.HandleDemote)
}
