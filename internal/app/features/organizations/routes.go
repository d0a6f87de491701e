// internal/app/features/organizations/routes.go
package organizations

import (
	"github.com/dalemusser/coachhub/internal/app/system/auth"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all Organization routes under the base path
// (typically "/organizations" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Any signed-in user can join with a code.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/join", h.HandleJoin)
	})

	// Admin-only routes
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleAdmin))

		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}", h.ServeView)
		pr.Patch("/{id}", h.HandlePatch)
		pr.Get("/{id}/roster", h.ServeRoster)
	})

	return r
}
