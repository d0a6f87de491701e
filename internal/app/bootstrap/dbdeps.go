// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/coachhub/internal/app/system/ratelimit"
	"github.com/dalemusser/coachhub/internal/app/system/workers"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	CoachHubMongoClient   *mongo.Client
	CoachHubMongoDatabase *mongo.Database

	// Redis is nil when redis_addr is blank.
	Redis *redis.Client
	// ResendLimiter throttles verification codes per address. It is
	// Redis-backed when Redis is configured and in-memory otherwise.
	ResendLimiter ratelimit.Limiter
	// CodeSweeper is started by Startup and stopped by Shutdown. It is nil
	// when verify_sweep_interval is 0.
	CodeSweeper *workers.CodeSweeper
}
