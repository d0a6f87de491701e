package missions_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/features/missions"
	"github.com/dalemusser/coachhub/internal/app/system/progress"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/dalemusser/coachhub/internal/testutil"
	"go.uber.org/zap"
)

func TestFilterFromRequest(t *testing.T) {
	f, err := missions.FilterFromRequest(testutil.NewRequest("GET",
		"/missions/stats?q=run&status=Completed&start_date=2024-03-01&end_date=2024-03-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Search == nil || *f.Search != "run" {
		t.Errorf("Search: got %v", f.Search)
	}
	if f.Status == nil || *f.Status != progress.StatusCompleted {
		t.Errorf("Status: got %v", f.Status)
	}
	if f.DateRange == nil || f.DateRange.Start == nil || f.DateRange.End == nil {
		t.Fatalf("DateRange: got %+v", f.DateRange)
	}
	if want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC); !f.DateRange.Start.Equal(want) {
		t.Errorf("Start: got %v, want %v", f.DateRange.Start, want)
	}

	f, err = missions.FilterFromRequest(testutil.NewRequest("GET", "/missions/stats"))
	if err != nil || f.Search != nil || f.Status != nil || f.DateRange != nil {
		t.Errorf("empty query: got %+v, %v", f, err)
	}

	for _, target := range []string{
		"/missions/stats?status=late",
		"/missions/stats?start_date=03/01/2024",
		"/missions/stats?end_date=2024-13-01",
	} {
		if _, err := missions.FilterFromRequest(testutil.NewRequest("GET", target)); !errors.Is(err, errs.ErrInvalidInput) {
			t.Errorf("%s: got %v, want ErrInvalidInput", target, err)
		}
	}
}

func TestServeStats_And_Mine(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	coach := fx.CreateCoach(ctx, "Coach", "coach@x.org")
	kim := fx.CreateStudent(ctx, "Kim", "kim@x.org")
	g := fx.CreateGroup(ctx, "G", nil)
	fx.CreateGroupMembership(ctx, coach.ID, g.ID, models.GroupRoleAdmin)
	fx.CreateGroupMembership(ctx, kim.ID, g.ID, models.GroupRoleMember)
	course := fx.CreateCourse(ctx, "Spring", g.ID)
	done := fx.CreateMission(ctx, course.ID, "Run 5k", now.AddDate(0, 0, -5), now.AddDate(0, 0, -1))
	fx.CreateMission(ctx, course.ID, "Stretch", now.AddDate(0, 0, -5), now.AddDate(0, 0, 3))
	fx.CreateProgress(ctx, kim.ID, done.ID, true)

	h := missions.NewHandler(db, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())
	h.Now = func() time.Time { return now }

	rec := testutil.NewRecorder()
	h.ServeStats(rec, testutil.NewAuthenticatedRequest("GET", "/missions/stats?status=completed", testutil.CoachUser(coach.ID)))
	rec.AssertStatus(t, http.StatusOK)
	var stats struct {
		Missions []progress.MissionStat `json:"missions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(stats.Missions) != 1 || stats.Missions[0].MissionID != done.ID || stats.Missions[0].CompletedCount != 1 {
		t.Errorf("stats: got %+v", stats.Missions)
	}

	rec = testutil.NewRecorder()
	h.ServeMine(rec, testutil.NewAuthenticatedRequest("GET", "/missions/mine", testutil.StudentUser(kim.ID)))
	rec.AssertStatus(t, http.StatusOK)
	var mine struct {
		Missions []struct {
			Title  string `json:"title"`
			Status string `json:"status"`
		} `json:"missions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &mine); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(mine.Missions) != 2 {
		t.Fatalf("mine: got %d missions, want 2", len(mine.Missions))
	}
	if mine.Missions[0].Title != "Run 5k" || mine.Missions[0].Status != string(progress.Completed) {
		t.Errorf("first mission: got %+v", mine.Missions[0])
	}
	if mine.Missions[1].Status != string(progress.Pending) {
		t.Errorf("second mission: got %+v", mine.Missions[1])
	}
}

func TestServeStats_CourseIDRequiresAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coach := fx.CreateCoach(ctx, "Coach", "coach@x.org")
	course := fx.CreateCourse(ctx, "Spring")
	h := missions.NewHandler(db, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())

	rec := testutil.NewRecorder()
	h.ServeStats(rec, testutil.NewAuthenticatedRequest("GET", "/missions/stats?course_id="+course.ID.Hex(), testutil.CoachUser(coach.ID)))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	h.ServeStats(rec, testutil.NewAuthenticatedRequest("GET", "/missions/stats?course_id="+course.ID.Hex(), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"missions":[]`)

	rec = testutil.NewRecorder()
	h.ServeStats(rec, testutil.NewAuthenticatedRequest("GET", "/missions/stats?course_id=zzz", testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	h.ServeStats(rec, testutil.NewAuthenticatedRequest("GET", "/missions/stats?status=late", testutil.CoachUser(coach.ID)))
	rec.AssertStatus(t, http.StatusBadRequest)
}
