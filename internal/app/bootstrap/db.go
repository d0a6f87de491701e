// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/coachhub/internal/app/store/verifycodes"
	"github.com/dalemusser/coachhub/internal/app/system/indexes"
	"github.com/dalemusser/coachhub/internal/app/system/ratelimit"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/dalemusser/coachhub/internal/app/system/validators"
	"github.com/dalemusser/coachhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// resendKeyPrefix namespaces the resend counters in Redis.
const resendKeyPrefix = "coachhub:verify_resend"

// ConnectDB connects to MongoDB and, when configured, Redis. A configured
// but unreachable Redis fails startup.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	timeouts.ConfigureFromEnv()

	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		CoachHubMongoClient:   client,
		CoachHubMongoDatabase: client.Database(appCfg.MongoDatabase),
	}
	if appCfg.VerifySweepInterval > 0 {
		codes := verifycodes.New(deps.CoachHubMongoDatabase, appCfg.VerifyCodeExpiry)
		deps.CodeSweeper = workers.NewCodeSweeper(codes, logger, appCfg.VerifySweepInterval)
	}

	if appCfg.RedisAddr == "" {
		logger.Info("redis not configured; resend limits are per-process")
		deps.ResendLimiter = ratelimit.NewMemory(appCfg.VerifyResendLimit, appCfg.VerifyResendWindow)
		return deps, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     appCfg.RedisAddr,
		Password: appCfg.RedisPassword,
		DB:       appCfg.RedisDB,
	})
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping redis %s: %w", appCfg.RedisAddr, err)
	}
	logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr))
	deps.Redis = rdb
	deps.ResendLimiter = ratelimit.NewRedis(rdb, resendKeyPrefix, appCfg.VerifyResendLimit, appCfg.VerifyResendWindow)
	return deps, nil
}

// EnsureSchema creates collections with their JSON-Schema validators and
// reconciles indexes.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.CoachHubMongoDatabase
	if err := validators.EnsureAll(ctx, db); err != nil {
		// Validators are advisory; indexes are not.
		logger.Warn("schema validators incomplete", zap.Error(err))
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("index setup failed", zap.Error(err))
		return err
	}
	return nil
}
