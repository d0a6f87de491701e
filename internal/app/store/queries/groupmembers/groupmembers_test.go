package groupmembers_test

import (
	"testing"

	"github.com/dalemusser/coachhub/internal/app/store/queries/groupmembers"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/dalemusser/coachhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestListMembers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	g := fx.CreateGroup(ctx, "Runners", nil)
	other := fx.CreateGroup(ctx, "Walkers", nil)
	zed := fx.CreateStudent(ctx, "Zed", "zed@example.com")
	amy := fx.CreateStudent(ctx, "Amy", "amy@example.com")
	coach := fx.CreateCoach(ctx, "Coach", "coach@example.com")
	mod := fx.CreateCoach(ctx, "Mod", "mod@example.com")
	off := fx.CreateDisabledUser(ctx, "Off", "off@example.com")
	stranger := fx.CreateStudent(ctx, "Stranger", "stranger@example.com")

	fx.CreateGroupMembership(ctx, zed.ID, g.ID, models.GroupRoleMember)
	fx.CreateGroupMembership(ctx, amy.ID, g.ID, models.GroupRoleMember)
	fx.CreateGroupMembership(ctx, mod.ID, g.ID, models.GroupRoleModerator)
	fx.CreateGroupMembership(ctx, coach.ID, g.ID, models.GroupRoleAdmin)
	fx.CreateGroupMembership(ctx, off.ID, g.ID, models.GroupRoleMember)
	fx.CreateGroupMembership(ctx, stranger.ID, other.ID, models.GroupRoleMember)

	got, err := groupmembers.ListMembers(ctx, db, g.ID, groupmembers.MemberFilter{})
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	want := []primitive.ObjectID{coach.ID, mod.ID, amy.ID, off.ID, zed.ID}
	if len(got) != len(want) {
		t.Fatalf("expected %d members, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].User.ID != id {
			t.Errorf("position %d: got %s (%s), want %s", i, got[i].User.FullName, got[i].Role, id.Hex())
		}
	}

	active, err := groupmembers.ListMembers(ctx, db, g.ID, groupmembers.MemberFilter{Status: models.StatusActive, Role: models.GroupRoleMember})
	if err != nil {
		t.Fatalf("ListMembers (filtered) failed: %v", err)
	}
	if len(active) != 2 || active[0].User.ID != amy.ID || active[1].User.ID != zed.ID {
		t.Errorf("expected active MEMBERs [Amy Zed], got %+v", active)
	}

	empty, err := groupmembers.ListMembers(ctx, db, primitive.NewObjectID(), groupmembers.MemberFilter{})
	if err != nil {
		t.Fatalf("ListMembers (unknown group) failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", empty)
	}
}
