// internal/app/features/organizations/join.go
package organizations

import (
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/system/authz"
	"github.com/dalemusser/coachhub/internal/app/system/metrics"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/dalemusser/coachhub/internal/domain/errs"
)

type joinRequest struct {
	Code string `json:"code" validate:"required,max=32"`
}

// HandleJoin handles POST /organizations/join.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.WriteError(w, r, "join organization", errs.ErrUnauthorized)
		return
	}

	var req joinRequest
	if err := uierrors.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "join organization", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "join organization")
	defer cancel()

	org, err := h.Joiner.JoinByCode(ctx, userID, req.Code)
	if err != nil {
		h.ErrLog.WriteError(w, r, "join organization", err)
		return
	}

	h.Audit.OrgJoinedByCode(ctx, r, userID, org.ID)
	h.Metrics.RecordVerification(metrics.VerifyJoined, "")
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"organization_id": org.ID,
		"name":            org.Name,
	})
}
