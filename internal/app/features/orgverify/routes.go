// internal/app/features/orgverify/routes.go
package orgverify

import (
	"github.com/dalemusser/coachhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/issue", h.HandleIssue)
		pr.Post("/verify", h.HandleVerify)
	})
	return r
}
