package ratelimit

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_Window(t *testing.T) {
	ctx := context.Background()
	l := NewMemory(2, time.Minute)
	defer l.Stop()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l.SetClock(func() time.Time { return now })

	for i, want := range []bool{true, true, false} {
		ok, err := l.Allow(ctx, "a@x.org")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "hit %d", i+1)
	}
	assert.Equal(t, 0, l.Remaining("a@x.org"))

	ok, _ := l.Allow(ctx, "b@x.org")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute + time.Second)
	ok, _ = l.Allow(ctx, "a@x.org")
	assert.True(t, ok, "new window after expiry")
}

func TestMemoryLimiter_Reset(t *testing.T) {
	ctx := context.Background()
	l := NewMemory(1, time.Hour)
	defer l.Stop()

	ok, _ := l.Allow(ctx, "k")
	require.True(t, ok)
	ok, _ = l.Allow(ctx, "k")
	require.False(t, ok)

	require.NoError(t, l.Reset(ctx, "k"))
	ok, _ = l.Allow(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, 0, l.Remaining("k"))
	assert.Equal(t, 1, l.Remaining("other"))
}

func TestMemoryLimiter_StopTwice(t *testing.T) {
	l := NewMemory(1, time.Second)
	l.Stop()
	l.Stop()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded first hop", "203.0.113.5, 10.0.0.1", "", "10.0.0.2:1234", "203.0.113.5"},
		{"real ip", "", " 198.51.100.7 ", "10.0.0.2:1234", "198.51.100.7"},
		{"remote with port", "", "", "192.0.2.1:5555", "192.0.2.1"},
		{"remote without port", "", "", "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP: got %q, want %q", got, tt.want)
			}
		})
	}
}
