package groups_test

import (
	"encoding/json"
	"net/http"
	"testing"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/features/groups"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/dalemusser/coachhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func request(target, id string, user testutil.TestUser) *http.Request {
	return testutil.WithChiURLParam(testutil.NewAuthenticatedRequest("GET", target, user), "id", id)
}

func TestServeMembers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fx.CreateGroup(ctx, "Runners", nil)
	coach := fx.CreateCoach(ctx, "Coach", "coach@example.com")
	kim := fx.CreateStudent(ctx, "Kim", "kim@example.com")
	fx.CreateGroupMembership(ctx, coach.ID, g.ID, models.GroupRoleAdmin)
	fx.CreateGroupMembership(ctx, kim.ID, g.ID, models.GroupRoleMember)

	h := groups.NewHandler(db, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())
	id := g.ID.Hex()

	rec := testutil.NewRecorder()
	h.ServeMembers(rec, request("/groups/"+id+"/members", id, testutil.CoachUser(coach.ID)))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Members []struct {
			User struct {
				ID primitive.ObjectID `json:"id"`
			} `json:"user"`
			Role string `json:"role"`
		} `json:"members"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Members, 2)
	assert.Equal(t, coach.ID, body.Members[0].User.ID)
	assert.Equal(t, models.GroupRoleAdmin, body.Members[0].Role)

	rec = testutil.NewRecorder()
	h.ServeMembers(rec, request("/groups/"+id+"/members?role=member", id, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	body.Members = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Members, 1)
	assert.Equal(t, kim.ID, body.Members[0].User.ID)
}

func TestServeMembers_Rejections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fx.CreateGroup(ctx, "Runners", nil)
	kim := fx.CreateStudent(ctx, "Kim", "kim@example.com")
	fx.CreateGroupMembership(ctx, kim.ID, g.ID, models.GroupRoleMember)
	h := groups.NewHandler(db, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())
	id := g.ID.Hex()
	missing := primitive.NewObjectID().Hex()

	tests := []struct {
		name   string
		target string
		id     string
		user   testutil.TestUser
		want   int
	}{
		{"plain member", "/", id, testutil.StudentUser(kim.ID), http.StatusNotFound},
		{"bad id", "/", "nope", testutil.AdminUser(), http.StatusBadRequest},
		{"bad status", "/?status=gone", id, testutil.AdminUser(), http.StatusBadRequest},
		{"bad role", "/?role=owner", id, testutil.AdminUser(), http.StatusBadRequest},
		{"missing group", "/", missing, testutil.AdminUser(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeMembers(rec, request(tt.target, tt.id, tt.user))
			rec.AssertStatus(t, tt.want)
		})
	}
}
