// internal/app/features/health/handler.go
package health

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Redis  *redis.Client // optional
	Log    *zap.Logger
}

// NewHandler constructs a health Handler. rdb may be nil when Redis is not configured.
func NewHandler(client *mongo.Client, rdb *redis.Client, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Redis:  rdb,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "cache":"connected" }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
//
// A Redis failure is reported as "degraded" with 200, since only resend
// throttling depends on it.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		uierrors.WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	if h.Redis != nil {
		resp.Cache = "connected"
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			h.Log.Warn("health-check: redis ping failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Cache = "disconnected"
		}
	}

	uierrors.WriteJSON(w, http.StatusOK, resp)
}
