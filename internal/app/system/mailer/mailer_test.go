package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func newTestMailer(d dialer) *Mailer {
	m := New(Config{Host: "smtp.test", Port: 587, From: "noreply@coachhub.test", FromName: "CoachHub"}, zap.NewNop())
	m.dialer = d
	return m
}

func TestMailer_Send(t *testing.T) {
	d := &fakeDialer{}
	m := newTestMailer(d)

	err := m.Send(context.Background(), Email{To: "a@x.org", Subject: "Hi", TextBody: "plain", HTMLBody: "<p>html</p>"})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	msg := d.sent[0]
	assert.Equal(t, []string{"a@x.org"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Hi"}, msg.GetHeader("Subject"))
	require.Len(t, msg.GetHeader("From"), 1)
	assert.Contains(t, msg.GetHeader("From")[0], "noreply@coachhub.test")
}

func TestMailer_SendErrors(t *testing.T) {
	ctx := context.Background()

	unconfigured := New(Config{}, zap.NewNop())
	assert.False(t, unconfigured.Configured())
	assert.ErrorIs(t, unconfigured.Send(ctx, Email{To: "a@x.org"}), ErrNotConfigured)

	m := newTestMailer(&fakeDialer{})
	assert.Error(t, m.Send(ctx, Email{To: "  "}))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, m.Send(cancelled, Email{To: "a@x.org"}), context.Canceled)

	boom := errors.New("connection refused")
	failing := newTestMailer(&fakeDialer{err: boom})
	assert.ErrorIs(t, failing.Send(ctx, Email{To: "a@x.org"}), boom)
}
