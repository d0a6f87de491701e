// internal/app/features/orgverify/verify.go
package orgverify

import (
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/system/authz"
	"github.com/dalemusser/coachhub/internal/app/system/metrics"
	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"go.uber.org/zap"
)

type verifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// HandleVerify handles POST /org-verify/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.WriteError(w, r, "verify code", errs.ErrUnauthorized)
		return
	}

	var req verifyRequest
	if err := uierrors.DecodeJSON(w, r, &req); err != nil {
		h.ErrLog.WriteError(w, r, "verify code", err)
		return
	}
	email := normalize.Email(req.Email)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "verify code")
	defer cancel()

	res, err := h.Service.VerifyCode(ctx, email, req.Code, userID)
	if err != nil {
		reason := failureReason(err)
		h.Audit.VerificationCodeFailed(ctx, r, userID, nil, "verify: "+reason)
		h.Metrics.RecordVerification(metrics.VerifyFailed, reason)
		h.ErrLog.WriteError(w, r, "verify code", err)
		return
	}

	if h.Resend != nil {
		if err := h.Resend.Reset(ctx, email); err != nil {
			h.Log.Debug("resend limiter reset failed", zap.Error(err))
		}
	}
	h.Audit.VerificationCodeVerified(ctx, r, userID, res.OrganizationID, res.AlreadyLinked)
	h.Metrics.RecordVerification(metrics.VerifyVerified, "")
	uierrors.WriteJSON(w, http.StatusOK, res)
}
