// internal/app/features/invitations/commit.go
package invitations

import (
	"fmt"
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/store/queries/invitations"
	"github.com/dalemusser/coachhub/internal/app/system/authz"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type commitRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,dive,objectid"`
}

// HandleCommit handles POST /groups/{id}/invitations/commit. The body lists
// the user ids chosen from a preview's NewMembers.
func (h *Handler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	gid, err := groupID(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, "invitation commit", err)
		return
	}

	var req commitRequest
	if err := uierrors.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "invitation commit", err)
		return
	}
	ids := make([]primitive.ObjectID, 0, len(req.UserIDs))
	for _, hex := range req.UserIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			h.ErrLog.WriteError(w, r, "invitation commit", fmt.Errorf("user id %q: %w", hex, errs.ErrInvalidInput))
			return
		}
		ids = append(ids, id)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "invitation commit")
	defer cancel()

	a, err := authz.AssertGroupAdminDB(ctx, h.DB, r, gid)
	if err != nil {
		h.ErrLog.WriteError(w, r, "invitation commit", err)
		return
	}

	res, err := invitations.Commit(ctx, h.DB, h.Log, gid, ids, a)
	if err != nil {
		h.ErrLog.WriteError(w, r, "invitation commit", err)
		return
	}

	h.Audit.MembersInvited(ctx, r, a.ActorID, gid, res.OrganizationID, len(res.Added), len(res.AlreadyMembers))
	h.Metrics.RecordInvitations(len(res.Added), len(res.AlreadyMembers), 0)
	uierrors.WriteJSON(w, http.StatusOK, res)
}
