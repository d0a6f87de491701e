package missionstore_test

import (
	"testing"
	"time"

	missionstore "github.com/dalemusser/coachhub/internal/app/store/missions"
	"github.com/dalemusser/coachhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_ListByCourses_OrderedByDueDate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := missionstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	c1 := fixtures.CreateCourse(ctx, "C1")
	c2 := fixtures.CreateCourse(ctx, "C2")
	other := fixtures.CreateCourse(ctx, "Other")
	late := fixtures.CreateMission(ctx, c1.ID, "late", base, base.AddDate(0, 0, 20))
	early := fixtures.CreateMission(ctx, c2.ID, "early", base, base.AddDate(0, 0, 5))
	fixtures.CreateMission(ctx, other.ID, "skip", base, base.AddDate(0, 0, 1))

	got, err := store.ListByCourses(ctx, []primitive.ObjectID{c1.ID, c2.ID})
	if err != nil {
		t.Fatalf("ListByCourses failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len: got %d, want 2", len(got))
	}
	if got[0].ID != early.ID || got[1].ID != late.ID {
		t.Errorf("order: got [%s %s], want [early late]", got[0].Title, got[1].Title)
	}
}
