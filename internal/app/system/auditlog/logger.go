// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/coachhub/internal/app/store/audit"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for verification and self-enrollment events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for organization and invitation events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// requestID returns the id chi's RequestID middleware assigned, or a fresh
// UUID so events written outside that middleware can still be correlated.
func requestID(r *http.Request) string {
	if r != nil {
		if id := middleware.GetReqID(r.Context()); id != "" {
			return id
		}
		if id := r.Header.Get(middleware.RequestIDHeader); id != "" {
			return id
		}
	}
	return uuid.NewString()
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("request_id", event.RequestID),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.OrganizationID != nil {
		fields = append(fields, zap.String("organization_id", event.OrganizationID.Hex()))
	}
	if event.GroupID != nil {
		fields = append(fields, zap.String("group_id", event.GroupID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all"
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) base(r *http.Request, category, eventType string, success bool) audit.Event {
	e := audit.Event{
		Category:  category,
		EventType: eventType,
		Success:   success,
		RequestID: requestID(r),
		IP:        getClientIP(r),
	}
	if r != nil {
		e.UserAgent = r.UserAgent()
	}
	return e
}

// --- Verification Events ---

// VerificationCodeSent logs that a code was issued and delivered.
func (l *Logger) VerificationCodeSent(ctx context.Context, r *http.Request, userID, orgID primitive.ObjectID, email string) {
	if l == nil {
		return
	}
	e := l.base(r, audit.CategoryAuth, audit.EventVerificationCodeSent, true)
	e.UserID = &userID
	e.OrganizationID = &orgID
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// VerificationCodeFailed logs a rejected issue or verify attempt.
func (l *Logger) VerificationCodeFailed(ctx context.Context, r *http.Request, userID primitive.ObjectID, orgID *primitive.ObjectID, reason string) {
	if l == nil {
		return
	}
	e := l.base(r, audit.CategoryAuth, audit.EventVerificationCodeFailed, false)
	e.UserID = &userID
	e.OrganizationID = orgID
	e.FailureReason = reason
	l.Log(ctx, e)
}

// VerificationCodeVerified logs a successful verification and the resulting org link.
func (l *Logger) VerificationCodeVerified(ctx context.Context, r *http.Request, userID, orgID primitive.ObjectID, alreadyLinked bool) {
	if l == nil {
		return
	}
	e := l.base(r, audit.CategoryAuth, audit.EventVerificationCodeVerified, true)
	e.UserID = &userID
	e.OrganizationID = &orgID
	e.Details = map[string]string{"already_linked": strconv.FormatBool(alreadyLinked)}
	l.Log(ctx, e)
}

// OrgJoinedByCode logs a self-enrollment through an organization join code.
func (l *Logger) OrgJoinedByCode(ctx context.Context, r *http.Request, userID, orgID primitive.ObjectID) {
	if l == nil {
		return
	}
	e := l.base(r, audit.CategoryAuth, audit.EventOrgJoinedByCode, true)
	e.UserID = &userID
	e.OrganizationID = &orgID
	l.Log(ctx, e)
}

// --- Admin Events ---

// MembersInvited logs a committed bulk invitation.
func (l *Logger) MembersInvited(ctx context.Context, r *http.Request, actorID, groupID primitive.ObjectID, orgID *primitive.ObjectID, added, alreadyMembers int) {
	if l == nil {
		return
	}
	e := l.base(r, audit.CategoryAdmin, audit.EventMembersInvited, true)
	e.ActorID = &actorID
	e.GroupID = &groupID
	e.OrganizationID = orgID
	e.Details = map[string]string{
		"added":           strconv.Itoa(added),
		"already_members": strconv.Itoa(alreadyMembers),
	}
	l.Log(ctx, e)
}

// OrgCreated logs creation of an organization.
func (l *Logger) OrgCreated(ctx context.Context, r *http.Request, actorID, orgID primitive.ObjectID, orgName string) {
	if l == nil {
		return
	}
	e := l.base(r, audit.CategoryAdmin, audit.EventOrgCreated, true)
	e.ActorID = &actorID
	e.OrganizationID = &orgID
	e.Details = map[string]string{"org_name": orgName}
	l.Log(ctx, e)
}

// OrgUpdated logs a patch to an organization. fieldsChanged is a comma list.
func (l *Logger) OrgUpdated(ctx context.Context, r *http.Request, actorID, orgID primitive.ObjectID, fieldsChanged string) {
	if l == nil {
		return
	}
	e := l.base(r, audit.CategoryAdmin, audit.EventOrgUpdated, true)
	e.ActorID = &actorID
	e.OrganizationID = &orgID
	e.Details = map[string]string{"fields_changed": fieldsChanged}
	l.Log(ctx, e)
}
