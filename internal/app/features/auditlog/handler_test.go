package auditlog_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/coachhub/internal/app/features/auditlog"
	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/store/audit"
	"github.com/dalemusser/coachhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type listBody struct {
	Items []struct {
		EventType    string `json:"event_type"`
		Actor        string `json:"actor"`
		User         string `json:"user"`
		Organization string `json:"organization"`
	} `json:"items"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func TestServeList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Acme", "acme.org")
	admin := fx.CreateUser(ctx, "Ada Admin", "ada@example.com", "admin")
	kim := fx.CreateStudent(ctx, "Kim", "kim@example.com")
	ghost := primitive.NewObjectID()

	store := audit.New(db)
	now := time.Now().UTC()
	events := []audit.Event{
		{Timestamp: now.Add(-2 * time.Hour), Category: audit.CategoryAdmin, EventType: audit.EventOrgCreated, ActorID: &admin.ID, OrganizationID: &org.ID, Success: true},
		{Timestamp: now.Add(-time.Hour), Category: audit.CategoryAuth, EventType: audit.EventVerificationCodeSent, UserID: &kim.ID, OrganizationID: &org.ID, Success: true},
		{Timestamp: now, Category: audit.CategoryAuth, EventType: audit.EventVerificationCodeFailed, UserID: &ghost, Success: false, FailureReason: "verify: mismatch"},
	}
	for _, e := range events {
		require.NoError(t, store.Log(ctx, e))
	}

	h := auditlog.NewHandler(db, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())
	get := func(target string) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", target, testutil.AdminUser()))
		return rec
	}

	rec := get("/audit")
	rec.AssertStatus(t, http.StatusOK)
	var body listBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body.Total)
	assert.Equal(t, 1, body.TotalPages)
	require.Len(t, body.Items, 3)
	assert.Equal(t, audit.EventVerificationCodeFailed, body.Items[0].EventType, "newest first")
	assert.Equal(t, ghost.Hex(), body.Items[0].User, "unknown user falls back to id")
	assert.Equal(t, "Kim", body.Items[1].User)
	assert.Equal(t, "Acme", body.Items[2].Organization)
	assert.Equal(t, "Ada Admin", body.Items[2].Actor)

	rec = get("/audit?category=auth&event_type=verification_code_sent")
	rec.AssertStatus(t, http.StatusOK)
	body = listBody{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, audit.EventVerificationCodeSent, body.Items[0].EventType)

	rec = get("/audit?organization_id=" + org.ID.Hex())
	body = listBody{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(2), body.Total)
}

func TestServeList_BadFilters(t *testing.T) {
	h := auditlog.NewHandler(nil, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())
	for _, target := range []string{
		"/audit?category=security",
		"/audit?category=admin&event_type=verification_code_sent",
		"/audit?organization_id=nope",
		"/audit?start_date=yesterday",
		"/audit?end_date=2026-13-01",
	} {
		rec := testutil.NewRecorder()
		h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", target, testutil.AdminUser()))
		rec.AssertStatus(t, http.StatusBadRequest)
	}
}
