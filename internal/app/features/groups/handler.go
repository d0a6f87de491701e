// internal/app/features/groups/handler.go
package groups

import (
	"fmt"
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the groups feature.
type Handler struct {
	DB     *mongo.Database
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

// NewHandler constructs a new groups Handler. It is typically called
// from the bootstrap BuildHandler function.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		ErrLog: errLog,
		Log:    logger,
	}
}

func groupID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("group id: %w", errs.ErrInvalidInput)
	}
	return id, nil
}
