// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	auditlogfeature "github.com/dalemusser/coachhub/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/coachhub/internal/app/features/errors"
	groupsfeature "github.com/dalemusser/coachhub/internal/app/features/groups"
	healthfeature "github.com/dalemusser/coachhub/internal/app/features/health"
	invitationsfeature "github.com/dalemusser/coachhub/internal/app/features/invitations"
	missionsfeature "github.com/dalemusser/coachhub/internal/app/features/missions"
	organizationsfeature "github.com/dalemusser/coachhub/internal/app/features/organizations"
	orgverifyfeature "github.com/dalemusser/coachhub/internal/app/features/orgverify"
	rosterfeature "github.com/dalemusser/coachhub/internal/app/features/roster"
	"github.com/dalemusser/coachhub/internal/app/store/audit"
	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/auditlog"
	"github.com/dalemusser/coachhub/internal/app/system/auth"
	"github.com/dalemusser/coachhub/internal/app/system/mailer"
	"github.com/dalemusser/coachhub/internal/app/system/metrics"
	"github.com/dalemusser/coachhub/internal/app/system/orgverify"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It builds the session manager, the
// verification delivery chain and the audit logger, then mounts the JSON
// feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.CoachHubMongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// LoadSessionUser fetches fresh user data on each request so role
	// changes and disabled accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	sender, err := newCodeSender(appCfg, logger)
	if err != nil {
		return nil, err
	}

	errLog := errorsfeature.NewErrorLogger(logger)
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
	m := metrics.New()
	verifier := orgverify.NewFromDB(db, sender, appCfg.VerifyCodeExpiry, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.CoachHubMongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", m.Handler())

	// Coach roster and mission progress
	rosterHandler := rosterfeature.NewHandler(db, errLog, logger)
	r.Mount("/roster", rosterfeature.Routes(rosterHandler, sessionMgr))

	missionsHandler := missionsfeature.NewHandler(db, errLog, logger)
	r.Mount("/missions", missionsfeature.Routes(missionsHandler, sessionMgr))

	// Group membership and bulk invitations
	groupsHandler := groupsfeature.NewHandler(db, errLog, logger)
	r.Mount("/groups/{id}/members", groupsfeature.Routes(groupsHandler, sessionMgr))

	invHandler := invitationsfeature.NewHandler(db, errLog, audits, m, logger)
	r.Mount("/groups/{id}/invitations", invitationsfeature.Routes(invHandler, sessionMgr))

	// Organization email verification and membership
	verifyHandler := orgverifyfeature.NewHandler(verifier, deps.ResendLimiter, errLog, audits, m, logger)
	r.Mount("/org-verify", orgverifyfeature.Routes(verifyHandler, sessionMgr))

	orgHandler := organizationsfeature.NewHandler(db, verifier, errLog, audits, m, logger)
	r.Mount("/organizations", organizationsfeature.Routes(orgHandler, sessionMgr))

	// Audit log (admin)
	auditHandler := auditlogfeature.NewHandler(db, errLog, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	return r, nil
}

// newCodeSender builds the verification delivery chain: SMTP email, plus
// SNS text messages when sms_enabled is set.
func newCodeSender(appCfg AppConfig, logger *zap.Logger) (*mailer.CodeSender, error) {
	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	if !mail.Configured() {
		logger.Warn("SMTP not configured; verification codes cannot be delivered")
	}

	var sms mailer.SMSSender
	if appCfg.SMSEnabled {
		sns, err := mailer.NewSNSSender(context.Background(), appCfg.SMSRegion)
		if err != nil {
			logger.Error("SNS client init failed", zap.Error(err))
			return nil, err
		}
		sms = sns
		logger.Info("SMS delivery enabled", zap.String("region", appCfg.SMSRegion))
	}

	return mailer.NewCodeSender(appCfg.MailFromName, mail, sms, logger), nil
}
