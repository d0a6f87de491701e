// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for CoachHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: COACHHUB_MONGO_URI, COACHHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "coachhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "coachhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	// Redis
	{Name: "redis_addr", Default: "", Desc: "Redis address for resend throttling (blank uses in-memory limits)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@coachhub.app", Desc: "From email address"},
	{Name: "mail_from_name", Default: "CoachHub", Desc: "From display name"},

	// SMS
	{Name: "sms_enabled", Default: false, Desc: "Also send verification codes by SMS through Amazon SNS"},
	{Name: "sms_region", Default: "us-east-1", Desc: "AWS region for SNS"},

	// Organization email verification
	{Name: "verify_code_expiry", Default: "10m", Desc: "Verification code expiry (e.g., 10m, 1h, 90s)"},
	{Name: "verify_resend_limit", Default: 5, Desc: "Verification codes allowed per address per window"},
	{Name: "verify_resend_window", Default: "15m", Desc: "Window for verify_resend_limit"},
	{Name: "verify_sweep_interval", Default: "5m", Desc: "How often expired verification codes are deleted (0 disables)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Verification/enrollment event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the site admin (promotes/creates on startup)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, COACHHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COACHHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		// Redis
		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		// Email/SMTP
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		// SMS
		SMSEnabled: appValues.Bool("sms_enabled"),
		SMSRegion:  appValues.String("sms_region"),

		// Verification
		VerifyCodeExpiry:    appValues.Duration("verify_code_expiry", 10*time.Minute),
		VerifyResendLimit:   appValues.Int("verify_resend_limit"),
		VerifyResendWindow:  appValues.Duration("verify_resend_window", 15*time.Minute),
		VerifySweepInterval: appValues.Duration("verify_sweep_interval", 5*time.Minute),

		// Audit logging
		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		AdminEmail: appValues.String("admin_email"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateAppConfig(appCfg)
}

// validateAppConfig checks the settings that do not depend on WAFFLE core config.
func validateAppConfig(appCfg AppConfig) error {
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}
	if appCfg.VerifyCodeExpiry <= 0 {
		return fmt.Errorf("verify_code_expiry must be positive, got %s", appCfg.VerifyCodeExpiry)
	}
	if appCfg.VerifyResendLimit < 1 {
		return fmt.Errorf("verify_resend_limit must be at least 1, got %d", appCfg.VerifyResendLimit)
	}
	if appCfg.VerifyResendWindow <= 0 {
		return fmt.Errorf("verify_resend_window must be positive, got %s", appCfg.VerifyResendWindow)
	}
	if appCfg.VerifySweepInterval < 0 {
		return fmt.Errorf("verify_sweep_interval must not be negative, got %s", appCfg.VerifySweepInterval)
	}
	if appCfg.SMSEnabled && appCfg.SMSRegion == "" {
		return fmt.Errorf("sms_enabled requires sms_region")
	}
	for key, v := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		switch v {
		case "", "all", "db", "log", "off":
		default:
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", key, v)
		}
	}
	return nil
}
