// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// The struct is passed to most lifecycle hooks, so any configuration
// needed during startup, request handling, or shutdown should live here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: coachhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Redis (optional). Blank address keeps resend throttling in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit, email-smtp.us-east-1.amazonaws.com for SES)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for Mailpit)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address
	MailFromName string // From display name; also used as the site name in messages

	// SMS via Amazon SNS
	SMSEnabled bool
	SMSRegion  string

	// Organization email verification
	VerifyCodeExpiry    time.Duration // lifetime of an issued code
	VerifyResendLimit   int           // codes per address per window
	VerifyResendWindow  time.Duration
	VerifySweepInterval time.Duration // how often expired codes are deleted; 0 disables

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// Admin bootstrap: promotes or creates this user as site admin on startup.
	AdminEmail string
}
