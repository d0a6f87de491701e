// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/coachhub/internal/app/system/auth"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all audit log routes under the path where this
// router is mounted (typically "/audit" from bootstrap).
//
// Access is restricted to site admins.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleAdmin))
		pr.Get("/", h.ServeList)
	})

	return r
}
