// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, logger); err != nil {
			return err
		}
	}
	if deps.CodeSweeper != nil {
		deps.CodeSweeper.Start()
	}
	return nil
}

// ensureAdmin makes the user with email a site admin, creating the account
// when it does not exist yet.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	email = normalize.Email(email)
	users := userstore.New(deps.CoachHubMongoDatabase)

	u, err := users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		created, err := users.Create(ctx, models.User{
			FullName: "Administrator",
			Email:    email,
			Role:     models.RoleAdmin,
		})
		if err != nil {
			return fmt.Errorf("create admin %s: %w", email, err)
		}
		logger.Info("created site admin", zap.String("email", email), zap.String("user_id", created.ID.Hex()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up admin %s: %w", email, err)
	}

	if u.Role == models.RoleAdmin {
		return nil
	}
	if err := users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
		return fmt.Errorf("promote admin %s: %w", email, err)
	}
	logger.Info("promoted user to site admin",
		zap.String("email", email),
		zap.String("previous_role", u.Role))
	return nil
}
