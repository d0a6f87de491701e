// internal/app/features/invitations/preview.go
package invitations

import (
	"fmt"
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/store/queries/invitations"
	"github.com/dalemusser/coachhub/internal/app/system/authz"
	"github.com/dalemusser/coachhub/internal/app/system/csvutil"
	"github.com/dalemusser/coachhub/internal/app/system/limits"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/dalemusser/coachhub/internal/domain/errs"
)

type previewRequest struct {
	Emails []string `json:"emails" validate:"required,min=1"`
}

// HandlePreview handles POST /groups/{id}/invitations/preview with a JSON
// list of candidate emails.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := uierrors.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "invitation preview", err)
		return
	}
	h.preview(w, r, req.Emails)
}

// HandlePreviewCSV handles POST /groups/{id}/invitations/preview_csv with a
// multipart "file" field holding a spreadsheet export with an email column.
func (h *Handler) HandlePreviewCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxCSVUploadSize)
	if err := r.ParseMultipartForm(limits.MaxCSVUploadSize); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse multipart failed", err, "File too large or malformed upload.")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		h.ErrLog.WriteError(w, r, "invitation preview csv", fmt.Errorf("file is required: %w", errs.ErrInvalidInput))
		return
	}
	defer file.Close()

	emails, err := csvutil.ExtractEmailColumn(file)
	if err != nil {
		h.ErrLog.WriteError(w, r, "invitation preview csv", err)
		return
	}
	h.preview(w, r, emails)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request, candidates []string) {
	gid, err := groupID(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, "invitation preview", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "invitation preview")
	defer cancel()

	a, err := authz.AssertGroupAdminDB(ctx, h.DB, r, gid)
	if err != nil {
		h.ErrLog.WriteError(w, r, "invitation preview", err)
		return
	}

	plan, err := invitations.Preview(ctx, h.DB, gid, candidates, a)
	if err != nil {
		h.ErrLog.WriteError(w, r, "invitation preview", err)
		return
	}
	h.Metrics.RecordInvitations(0, 0, len(plan.Unresolvable))
	uierrors.WriteJSON(w, http.StatusOK, plan)
}
