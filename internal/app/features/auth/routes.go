// internal/app/features/auth/routes.go
package auth

import (
	"github.com/dalemusser/clubhub/internal/app/system/session"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the auth endpoints. Typically: r.Mount("/auth", auth.Routes(h))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
	r.Get("/verify", h.HandleVerify)

	r.Group(func(pr chi.Router) {
		pr.Use(session.RequireSignedIn)
		pr.Get("/me", h.HandleMe)
	})

	return r
}
