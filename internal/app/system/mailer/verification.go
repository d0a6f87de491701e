// internal/app/system/mailer/verification.go
package mailer

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// EmailSender delivers a built Email.
type EmailSender interface {
	Send(ctx context.Context, e Email) error
}

// VerificationMessage is everything needed to deliver one verification code.
type VerificationMessage struct {
	Email   string
	Phone   string
	OrgName string
	Code    string
	Expiry  time.Duration
}

// CodeSender delivers verification codes by email and, when an SMS sender
// is set and the user has a phone number, by text message as well. Email
// is authoritative: an SMS failure is logged, an email failure is returned.
type CodeSender struct {
	siteName string
	email    EmailSender
	sms      SMSSender
	log      *zap.Logger
}

// NewCodeSender creates a CodeSender. sms may be nil.
func NewCodeSender(siteName string, email EmailSender, sms SMSSender, log *zap.Logger) *CodeSender {
	return &CodeSender{siteName: siteName, email: email, sms: sms, log: log}
}

func (s *CodeSender) SendVerificationCode(ctx context.Context, msg VerificationMessage) error {
	data := VerificationEmailData{
		SiteName:  s.siteName,
		OrgName:   msg.OrgName,
		Code:      msg.Code,
		ExpiresIn: formatExpiry(msg.Expiry),
	}

	e := BuildVerificationEmail(data)
	e.To = msg.Email
	if err := s.email.Send(ctx, e); err != nil {
		return err
	}

	if s.sms != nil && msg.Phone != "" {
		if err := s.sms.SendSMS(ctx, msg.Phone, BuildVerificationSMS(data)); err != nil {
			s.log.Warn("verification sms failed", zap.Error(err), zap.String("email", msg.Email))
		}
	}
	return nil
}

// formatExpiry renders whole minutes ("10 minutes", "1 minute"), falling
// back to the duration string for sub-minute values.
func formatExpiry(d time.Duration) string {
	m := int(d / time.Minute)
	switch {
	case m == 1:
		return "1 minute"
	case m > 1:
		return strconv.Itoa(m) + " minutes"
	default:
		return d.String()
	}
}
