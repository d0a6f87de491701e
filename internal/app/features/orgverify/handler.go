// internal/app/features/orgverify/handler.go
package orgverify

import (
	"context"
	"errors"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/system/auditlog"
	"github.com/dalemusser/coachhub/internal/app/system/metrics"
	"github.com/dalemusser/coachhub/internal/app/system/orgverify"
	"github.com/dalemusser/coachhub/internal/app/system/ratelimit"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Verifier is the part of orgverify.Service the handlers use.
type Verifier interface {
	IssueCode(ctx context.Context, userID primitive.ObjectID, email string, orgID primitive.ObjectID) (orgverify.IssueResult, error)
	VerifyCode(ctx context.Context, email, code string, userID primitive.ObjectID) (orgverify.VerifyResult, error)
}

// Handler serves organization email verification.
type Handler struct {
	Service Verifier
	Resend  ratelimit.Limiter
	ErrLog  *uierrors.ErrorLogger
	Audit   *auditlog.Logger
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// NewHandler constructs the handler. resend may be nil to disable throttling.
func NewHandler(svc Verifier, resend ratelimit.Limiter, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{Service: svc, Resend: resend, ErrLog: errLog, Audit: audit, Metrics: m, Log: logger}
}

// failureReason is the short label used in audit events and metrics.
func failureReason(err error) string {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrExpired):
		return "expired"
	case errors.Is(err, errs.ErrMismatch):
		return "mismatch"
	case errors.Is(err, errs.ErrConflict):
		return "already_linked"
	case errors.Is(err, errs.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
