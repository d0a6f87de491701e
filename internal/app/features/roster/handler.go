// internal/app/features/roster/handler.go
package roster

import (
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/store/queries/roster"
	"github.com/dalemusser/coachhub/internal/app/system/authz"
	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/app/system/paging"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the signed-in coach's roster.
type Handler struct {
	DB     *mongo.Database
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{DB: db, ErrLog: errLog, Log: logger}
}

// FilterFromRequest reads ?q= and ?start= into a roster.Filter.
func FilterFromRequest(r *http.Request) roster.Filter {
	return roster.Filter{
		Search: normalize.QueryParam(query.Get(r, "q")),
		Start:  paging.ParseStart(r),
	}
}

// ServeRoster handles GET /roster.
func (h *Handler) ServeRoster(w http.ResponseWriter, r *http.Request) {
	_, _, coachID, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.WriteError(w, r, "roster", errs.ErrUnauthorized)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "roster")
	defer cancel()

	page, err := roster.ResolveRoster(ctx, h.DB, coachID, FilterFromRequest(r))
	if err != nil {
		h.ErrLog.WriteError(w, r, "resolve roster", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, page)
}
