package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/coachhub/internal/app/system/ratelimit"
	"github.com/dalemusser/coachhub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func TestBuildHandler_Routes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	limiter := ratelimit.NewMemory(5, time.Minute)
	defer limiter.Stop()

	deps := DBDeps{
		CoachHubMongoClient:   db.Client(),
		CoachHubMongoDatabase: db,
		ResendLimiter:         limiter,
	}
	appCfg := AppConfig{
		SessionKey:         "test-session-key-0123456789abcdefghijkl",
		SessionName:        "coachhub-test",
		SessionMaxAge:      time.Hour,
		MailFromName:       "CoachHub",
		VerifyCodeExpiry:   10 * time.Minute,
		VerifyResendLimit:  5,
		VerifyResendWindow: time.Minute,
	}

	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, appCfg, deps, zap.NewNop())
	if err != nil {
		t.Fatalf("BuildHandler failed: %v", err)
	}

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/metrics", http.StatusOK},
		{"GET", "/roster", http.StatusUnauthorized},
		{"GET", "/missions/stats", http.StatusUnauthorized},
		{"GET", "/missions/mine", http.StatusUnauthorized},
		{"POST", "/groups/507f1f77bcf86cd799439011/invitations/preview", http.StatusUnauthorized},
		{"GET", "/groups/507f1f77bcf86cd799439011/members", http.StatusUnauthorized},
		{"POST", "/org-verify/issue", http.StatusUnauthorized},
		{"POST", "/organizations/join", http.StatusUnauthorized},
		{"POST", "/organizations", http.StatusUnauthorized},
		{"GET", "/audit", http.StatusUnauthorized},
		{"GET", "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			req.Header.Set("Accept", "application/json")
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("%s %s: got %d, want %d (%s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
