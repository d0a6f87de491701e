// internal/app/features/roster/routes.go
package roster

import (
	"github.com/dalemusser/coachhub/internal/app/system/auth"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleCoach, models.RoleAdmin))
		pr.Get("/", h.ServeRoster)
	})
	return r
}
