package organizations_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/features/organizations"
	"github.com/dalemusser/coachhub/internal/app/store/audit"
	"github.com/dalemusser/coachhub/internal/app/store/queries/roster"
	"github.com/dalemusser/coachhub/internal/app/system/auditlog"
	"github.com/dalemusser/coachhub/internal/app/system/metrics"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/dalemusser/coachhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type mockJoiner struct{ mock.Mock }

func (m *mockJoiner) JoinByCode(ctx context.Context, userID primitive.ObjectID, code string) (models.Organization, error) {
	args := m.Called(ctx, userID, code)
	return args.Get(0).(models.Organization), args.Error(1)
}

func newTestHandler(t *testing.T, joiner organizations.Joiner) (*organizations.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{})
	h := organizations.NewHandler(db, joiner, uierrors.NewErrorLogger(logger), audits, metrics.New(), logger)
	return h, testutil.NewFixtures(t, db)
}

func countEvents(t *testing.T, db *mongo.Database, eventType string) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := db.Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": eventType})
	require.NoError(t, err)
	return n
}

func TestHandleJoin(t *testing.T) {
	userID := primitive.NewObjectID()
	org := models.Organization{ID: primitive.NewObjectID(), Name: "Acme"}

	j := &mockJoiner{}
	j.On("JoinByCode", mock.Anything, userID, "ABCD2345").Return(org, nil)
	h := organizations.NewHandler(nil, j, uierrors.NewErrorLogger(zap.NewNop()), nil, metrics.New(), zap.NewNop())

	rec := testutil.NewRecorder()
	h.HandleJoin(rec, testutil.NewJSONRequest("POST", "/organizations/join", `{"code":"ABCD2345"}`, testutil.StudentUser(userID)))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, org.ID.Hex())
	j.AssertExpectations(t)
}

func TestHandleJoin_Errors(t *testing.T) {
	userID := primitive.NewObjectID()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown code", errs.ErrNotFound, http.StatusNotFound},
		{"already member", errs.ErrConflict, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := &mockJoiner{}
			j.On("JoinByCode", mock.Anything, userID, "ZZZZ9999").Return(models.Organization{}, tt.err)
			h := organizations.NewHandler(nil, j, uierrors.NewErrorLogger(zap.NewNop()), nil, nil, zap.NewNop())

			rec := testutil.NewRecorder()
			h.HandleJoin(rec, testutil.NewJSONRequest("POST", "/organizations/join", `{"code":"ZZZZ9999"}`, testutil.StudentUser(userID)))
			rec.AssertStatus(t, tt.want)
		})
	}

	j := &mockJoiner{}
	h := organizations.NewHandler(nil, j, uierrors.NewErrorLogger(zap.NewNop()), nil, nil, zap.NewNop())
	rec := testutil.NewRecorder()
	h.HandleJoin(rec, testutil.NewJSONRequest("POST", "/organizations/join", `{"code":""}`, testutil.StudentUser(userID)))
	rec.AssertStatus(t, http.StatusBadRequest)
	j.AssertNotCalled(t, "JoinByCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleCreate(t *testing.T) {
	h, fx := newTestHandler(t, nil)

	rec := testutil.NewRecorder()
	h.HandleCreate(rec, testutil.NewJSONRequest("POST", "/organizations",
		`{"name":"  Acme Running  ","email_domain":"@Acme.ORG"}`, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusCreated)

	var org models.Organization
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &org))
	assert.Equal(t, "Acme Running", org.Name)
	assert.Equal(t, "acme.org", org.EmailDomain)
	assert.Len(t, org.Code, 8)
	assert.Equal(t, int64(1), countEvents(t, fx.DB(), audit.EventOrgCreated))

	rec = testutil.NewRecorder()
	h.HandleCreate(rec, testutil.NewJSONRequest("POST", "/organizations",
		`{"name":"Other","email_domain":"acme.org"}`, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusConflict)

	rec = testutil.NewRecorder()
	h.HandleCreate(rec, testutil.NewJSONRequest("POST", "/organizations", `{"name":"   "}`, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandlePatch(t *testing.T) {
	h, fx := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Acme", "acme.org")
	fx.CreateOrganization(ctx, "Taken", "taken.org")

	patch := func(id, body string) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		req := testutil.WithChiURLParam(testutil.NewJSONRequest("PATCH", "/organizations/"+id, body, testutil.AdminUser()), "id", id)
		h.HandlePatch(rec, req)
		return rec
	}

	rec := patch(org.ID.Hex(), `{"name":"Acme Club"}`)
	rec.AssertStatus(t, http.StatusOK)
	var got models.Organization
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Acme Club", got.Name)
	assert.Equal(t, "acme.org", got.EmailDomain, "absent field is unchanged")

	rec = patch(org.ID.Hex(), `{"email_domain":""}`)
	rec.AssertStatus(t, http.StatusOK)
	got = models.Organization{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got.EmailDomain)
	assert.Equal(t, int64(2), countEvents(t, fx.DB(), audit.EventOrgUpdated))

	patch(org.ID.Hex(), `{"email_domain":"taken.org"}`).AssertStatus(t, http.StatusConflict)
	patch(primitive.NewObjectID().Hex(), `{"name":"Ghost"}`).AssertStatus(t, http.StatusNotFound)
	patch("not-an-id", `{"name":"X"}`).AssertStatus(t, http.StatusBadRequest)
	patch(org.ID.Hex(), `{"name":" "}`).AssertStatus(t, http.StatusBadRequest)
}

func TestServeRoster(t *testing.T) {
	h, fx := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Acme", "")
	g := fx.CreateGroup(ctx, "Acme 1", &org.ID)
	kim := fx.CreateStudent(ctx, "Kim", "kim@example.com")
	lee := fx.CreateStudent(ctx, "Lee", "lee@example.com")
	fx.CreateGroupMembership(ctx, kim.ID, g.ID, models.GroupRoleMember)
	fx.CreateGroupMembership(ctx, lee.ID, g.ID, models.GroupRoleMember)

	rec := testutil.NewRecorder()
	req := testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("GET", "/organizations/"+org.ID.Hex()+"/roster?q=kim", testutil.AdminUser()),
		"id", org.ID.Hex())
	h.ServeRoster(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var page roster.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Entries, 1)
	assert.Equal(t, kim.ID, page.Entries[0].UserID)

	missing := primitive.NewObjectID().Hex()
	rec = testutil.NewRecorder()
	h.ServeRoster(rec, testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("GET", "/organizations/"+missing+"/roster", testutil.AdminUser()), "id", missing))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeView(t *testing.T) {
	h, fx := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := fx.CreateOrganization(ctx, "Acme", "acme.org")

	rec := testutil.NewRecorder()
	h.ServeView(rec, testutil.WithChiURLParam(
		testutil.NewAuthenticatedRequest("GET", "/organizations/"+org.ID.Hex(), testutil.AdminUser()), "id", org.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"email_domain":"acme.org"`)
}
