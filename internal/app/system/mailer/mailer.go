// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Email is one outgoing message. HTMLBody is optional.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// ErrNotConfigured is returned by Send when no SMTP host or sender is set.
var ErrNotConfigured = errors.New("mailer: smtp not configured")

// dialer is the part of gomail.Dialer the mailer uses.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends email over SMTP.
type Mailer struct {
	cfg    Config
	dialer dialer
	log    *zap.Logger
}

// New creates a Mailer. A Mailer with an empty host is valid; Send then
// fails with ErrNotConfigured.
func New(cfg Config, log *zap.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		log:    log,
	}
}

// Configured reports whether SMTP host and sender are set.
func (m *Mailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.From != ""
}

// Send delivers e. It returns early if ctx is already done.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	if !m.Configured() {
		return ErrNotConfigured
	}
	if strings.TrimSpace(e.To) == "" {
		return errors.New("mailer: empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.From, m.cfg.FromName)
	msg.SetHeader("To", e.To)
	msg.SetHeader("Subject", e.Subject)
	msg.SetBody("text/plain", e.TextBody)
	if e.HTMLBody != "" {
		msg.AddAlternative("text/html", e.HTMLBody)
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	m.log.Info("email sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}
