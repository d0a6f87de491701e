// internal/app/features/organizations/handler.go
package organizations

import (
	"context"
	"fmt"
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/system/auditlog"
	"github.com/dalemusser/coachhub/internal/app/system/metrics"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Joiner links a user to an organization by join code.
type Joiner interface {
	JoinByCode(ctx context.Context, userID primitive.ObjectID, code string) (models.Organization, error)
}

// Handler is the feature-level entry point for Organizations.
type Handler struct {
	DB      *mongo.Database
	Joiner  Joiner
	ErrLog  *uierrors.ErrorLogger
	Audit   *auditlog.Logger
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

// NewHandler constructs a new Organizations handler bound to a DB and logger.
func NewHandler(db *mongo.Database, joiner Joiner, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Joiner:  joiner,
		ErrLog:  errLog,
		Audit:   audit,
		Metrics: m,
		Log:     logger,
	}
}

func orgID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("organization id: %w", errs.ErrInvalidInput)
	}
	return id, nil
}
