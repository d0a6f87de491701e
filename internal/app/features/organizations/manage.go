// internal/app/features/organizations/manage.go
package organizations

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	organizationstore "github.com/dalemusser/coachhub/internal/app/store/organizations"
	"github.com/dalemusser/coachhub/internal/app/system/authz"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

type createRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	EmailDomain string `json:"email_domain" validate:"omitempty,max=253"`
}

type patchRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	EmailDomain *string `json:"email_domain" validate:"omitempty,max=253"`
}

// storeErr maps organization store failures onto domain errors.
func storeErr(err error) error {
	switch {
	case errors.Is(err, organizationstore.ErrDuplicateEmailDomain):
		return fmt.Errorf("%v: %w", err, errs.ErrConflict)
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("organization: %w", errs.ErrNotFound)
	}
	return err
}

// ServeView handles GET /organizations/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := orgID(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, "view organization", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "view organization")
	defer cancel()

	org, err := organizationstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		h.ErrLog.WriteError(w, r, "load organization", storeErr(err))
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, org)
}

// HandleCreate handles POST /organizations.
// Authorization: RequireRole("admin") middleware in routes.go ensures only admins reach this handler.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, _ := authz.UserCtx(r)

	var req createRequest
	if err := uierrors.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "create organization", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.ErrLog.WriteError(w, r, "create organization", fmt.Errorf("name is required: %w", errs.ErrInvalidInput))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create organization")
	defer cancel()

	org, err := organizationstore.New(h.DB).Create(ctx, models.Organization{
		Name:        req.Name,
		EmailDomain: req.EmailDomain,
	})
	if err != nil {
		h.ErrLog.WriteError(w, r, "create organization", storeErr(err))
		return
	}

	h.Audit.OrgCreated(ctx, r, actorID, org.ID, org.Name)
	uierrors.WriteJSON(w, http.StatusCreated, org)
}

// HandlePatch handles PATCH /organizations/{id}. Absent fields are left
// unchanged; an empty email_domain clears the domain.
// Authorization: RequireRole("admin") middleware in routes.go ensures only admins reach this handler.
func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, _ := authz.UserCtx(r)

	id, err := orgID(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, "update organization", err)
		return
	}

	var req patchRequest
	if err := uierrors.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "update organization", err)
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		h.ErrLog.WriteError(w, r, "update organization", fmt.Errorf("name cannot be blank: %w", errs.ErrInvalidInput))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update organization")
	defer cancel()

	store := organizationstore.New(h.DB)
	patch := organizationstore.Patch{Name: req.Name, EmailDomain: req.EmailDomain}
	if err := store.Update(ctx, id, patch); err != nil {
		h.ErrLog.WriteError(w, r, "update organization", storeErr(err))
		return
	}

	org, err := store.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.WriteError(w, r, "load organization", storeErr(err))
		return
	}

	if !patch.Empty() {
		var changed []string
		if req.Name != nil {
			changed = append(changed, "name")
		}
		if req.EmailDomain != nil {
			changed = append(changed, "email_domain")
		}
		h.Audit.OrgUpdated(ctx, r, actorID, id, strings.Join(changed, ","))
	}
	uierrors.WriteJSON(w, http.StatusOK, org)
}
