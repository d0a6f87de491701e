// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/coachhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down DB connections and other resources.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.CodeSweeper != nil {
		deps.CodeSweeper.Stop()
	}
	if ml, ok := deps.ResendLimiter.(*ratelimit.MemoryLimiter); ok {
		ml.Stop()
	}
	if deps.Redis != nil {
		logger.Info("closing Redis client")
		if err := deps.Redis.Close(); err != nil {
			logger.Warn("Redis close failed", zap.Error(err))
		}
	}
	if deps.CoachHubMongoClient != nil {
		logger.Info("disconnecting CoachHub MongoDB client")
		if err := deps.CoachHubMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
