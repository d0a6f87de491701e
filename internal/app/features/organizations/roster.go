// internal/app/features/organizations/roster.go
package organizations

import (
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	rosterfeature "github.com/dalemusser/coachhub/internal/app/features/roster"
	"github.com/dalemusser/coachhub/internal/app/store/queries/roster"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
)

// ServeRoster handles GET /organizations/{id}/roster.
func (h *Handler) ServeRoster(w http.ResponseWriter, r *http.Request) {
	id, err := orgID(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, "organization roster", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "organization roster")
	defer cancel()

	page, err := roster.ResolveOrgRoster(ctx, h.DB, id, rosterfeature.FilterFromRequest(r))
	if err != nil {
		h.ErrLog.WriteError(w, r, "resolve organization roster", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, page)
}
