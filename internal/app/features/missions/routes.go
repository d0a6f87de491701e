// internal/app/features/missions/routes.go
package missions

import (
	"github.com/dalemusser/coachhub/internal/app/system/auth"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/mine", h.ServeMine)
	})
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleCoach, models.RoleAdmin))
		pr.Get("/stats", h.ServeStats)
	})
	return r
}
