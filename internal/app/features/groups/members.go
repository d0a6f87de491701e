// internal/app/features/groups/members.go
package groups

import (
	"errors"
	"fmt"
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	groupstore "github.com/dalemusser/coachhub/internal/app/store/groups"
	"github.com/dalemusser/coachhub/internal/app/store/queries/groupmembers"
	"github.com/dalemusser/coachhub/internal/app/system/authz"
	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo"
)

type membersResponse struct {
	Group   models.Group                `json:"group"`
	Members []groupmembers.GroupMember `json:"members"`
}

func memberFilter(r *http.Request) (groupmembers.MemberFilter, error) {
	f := groupmembers.MemberFilter{
		Status: normalize.QueryParam(query.Get(r, "status")),
		Role:   normalize.GroupRole(query.Get(r, "role")),
	}
	switch f.Status {
	case "", models.StatusActive, models.StatusDisabled:
	default:
		return f, fmt.Errorf("status %q: %w", f.Status, errs.ErrInvalidInput)
	}
	switch f.Role {
	case "", models.GroupRoleAdmin, models.GroupRoleModerator, models.GroupRoleMember:
	default:
		return f, fmt.Errorf("role %q: %w", f.Role, errs.ErrInvalidInput)
	}
	return f, nil
}

// ServeMembers handles GET /groups/{id}/members. Site admins and the
// group's ADMINs may list members.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	gid, err := groupID(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, "group members", err)
		return
	}
	f, err := memberFilter(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, "group members", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "group members")
	defer cancel()

	if _, err := authz.AssertGroupAdminDB(ctx, h.DB, r, gid); err != nil {
		h.ErrLog.WriteError(w, r, "group members", err)
		return
	}

	g, err := groupstore.New(h.DB).GetByID(ctx, gid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.WriteError(w, r, "group members", fmt.Errorf("group %s: %w", gid.Hex(), errs.ErrNotFound))
		return
	}
	if err != nil {
		h.ErrLog.WriteError(w, r, "load group", err)
		return
	}

	members, err := groupmembers.ListMembers(ctx, h.DB, gid, f)
	if err != nil {
		h.ErrLog.WriteError(w, r, "list group members", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, membersResponse{Group: g, Members: members})
}
