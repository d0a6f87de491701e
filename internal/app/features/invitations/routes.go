// internal/app/features/invitations/routes.go
package invitations

import (
	"github.com/dalemusser/coachhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /groups/{id}/invitations.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/preview", h.HandlePreview)
		pr.Post("/preview_csv", h.HandlePreviewCSV)
		pr.Post("/commit", h.HandleCommit)
	})
	return r
}
