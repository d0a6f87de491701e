// internal/app/features/invitations/handler.go
package invitations

import (
	"fmt"
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/system/auditlog"
	"github.com/dalemusser/coachhub/internal/app/system/metrics"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves bulk invitation preview and commit for one group.
type Handler struct {
	DB      *mongo.Database
	ErrLog  *uierrors.ErrorLogger
	Audit   *auditlog.Logger
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{DB: db, ErrLog: errLog, Audit: audit, Metrics: m, Log: logger}
}

// groupID parses the {id} route parameter.
func groupID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("group id: %w", errs.ErrInvalidInput)
	}
	return id, nil
}
