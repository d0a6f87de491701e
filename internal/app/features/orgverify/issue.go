// internal/app/features/orgverify/issue.go
package orgverify

import (
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/system/authz"
	"github.com/dalemusser/coachhub/internal/app/system/metrics"
	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type issueRequest struct {
	Email          string `json:"email" validate:"required,email"`
	OrganizationID string `json:"organization_id" validate:"required,objectid"`
}

// HandleIssue handles POST /org-verify/issue.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.WriteError(w, r, "issue verification code", errs.ErrUnauthorized)
		return
	}

	var req issueRequest
	if err := uierrors.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "issue verification code", err)
		return
	}
	orgID, _ := primitive.ObjectIDFromHex(req.OrganizationID)
	email := normalize.Email(req.Email)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "issue verification code")
	defer cancel()

	if h.Resend != nil {
		allowed, err := h.Resend.Allow(ctx, email)
		if err != nil {
			// Fail open when the limiter is unavailable.
			h.Log.Warn("resend limiter unavailable", zap.Error(err))
		} else if !allowed {
			h.Metrics.RecordRateLimited("verify_issue")
			uierrors.Write(w, http.StatusTooManyRequests, "Too many codes requested for this address. Please wait before trying again.")
			return
		}
	}

	res, err := h.Service.IssueCode(ctx, userID, email, orgID)
	if err != nil {
		reason := failureReason(err)
		h.Audit.VerificationCodeFailed(ctx, r, userID, &orgID, "issue: "+reason)
		h.Metrics.RecordVerification(metrics.VerifyFailed, reason)
		h.ErrLog.WriteError(w, r, "issue verification code", err)
		return
	}

	h.Audit.VerificationCodeSent(ctx, r, userID, orgID, email)
	h.Metrics.RecordVerification(metrics.VerifyIssued, "")
	uierrors.WriteJSON(w, http.StatusAccepted, res)
}
