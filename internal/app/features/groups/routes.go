// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/coachhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /groups/{id}/members.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeMembers)
	})
	return r
}
