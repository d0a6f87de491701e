// internal/app/store/queries/missionstats/missionstats.go
package missionstats

import (
	"context"
	"fmt"
	"time"

	coursestore "github.com/dalemusser/coachhub/internal/app/store/courses"
	membershipstore "github.com/dalemusser/coachhub/internal/app/store/memberships"
	missionstore "github.com/dalemusser/coachhub/internal/app/store/missions"
	progressstore "github.com/dalemusser/coachhub/internal/app/store/progress"
	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/progress"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ListForCourses aggregates progress for every mission of the given
// courses and applies f. Missions are ordered by due date.
func ListForCourses(ctx context.Context, db *mongo.Database, courseIDs []primitive.ObjectID, f progress.Filter) ([]progress.MissionStat, error) {
	missions, err := missionstore.New(db).ListByCourses(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	if len(missions) == 0 {
		return []progress.MissionStat{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(missions))
	for _, m := range missions {
		ids = append(ids, m.ID)
	}
	rows, err := progressstore.New(db).ListByMissions(ctx, ids)
	if err != nil {
		return nil, err
	}
	return f.Apply(progress.AggregateMissionStats(missions, rows)), nil
}

// ForCoach aggregates progress for the missions of every course running
// for a group the coach belongs to. Fails with errs.ErrNotFound unless
// coachID is an active coach or admin.
func ForCoach(ctx context.Context, db *mongo.Database, coachID primitive.ObjectID, f progress.Filter) ([]progress.MissionStat, error) {
	u, err := activeUser(ctx, db, coachID)
	if err != nil {
		return nil, err
	}
	if !u.IsCoach() {
		return nil, fmt.Errorf("coach %s: %w", coachID.Hex(), errs.ErrNotFound)
	}

	courses, err := coursesForUser(ctx, db, coachID)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return []progress.MissionStat{}, nil
	}
	courseIDs := make([]primitive.ObjectID, 0, len(courses))
	for _, c := range courses {
		courseIDs = append(courseIDs, c.ID)
	}
	return ListForCourses(ctx, db, courseIDs, f)
}

// UserMission is one mission as seen by a participant.
type UserMission struct {
	MissionID   primitive.ObjectID `json:"mission_id"`
	CourseID    primitive.ObjectID `json:"course_id"`
	CourseTitle string             `json:"course_title"`
	Title       string             `json:"title"`
	DueDate     time.Time          `json:"due_date"`
	Status      progress.Status    `json:"status"`
	CheckedAt   *time.Time         `json:"checked_at,omitempty"`
}

// UserMissions lists the missions of every course running for the user's
// groups with the user's status at now. Fails with errs.ErrNotFound when
// the user does not exist or is disabled.
func UserMissions(ctx context.Context, db *mongo.Database, userID primitive.ObjectID, now time.Time) ([]UserMission, error) {
	if _, err := activeUser(ctx, db, userID); err != nil {
		return nil, err
	}

	courses, err := coursesForUser(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return []UserMission{}, nil
	}
	titles := make(map[primitive.ObjectID]string, len(courses))
	courseIDs := make([]primitive.ObjectID, 0, len(courses))
	for _, c := range courses {
		titles[c.ID] = c.Title
		courseIDs = append(courseIDs, c.ID)
	}

	missions, err := missionstore.New(db).ListByCourses(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	missionIDs := make([]primitive.ObjectID, 0, len(missions))
	for _, m := range missions {
		missionIDs = append(missionIDs, m.ID)
	}
	rows, err := progressstore.New(db).ByUserAndMissions(ctx, userID, missionIDs)
	if err != nil {
		return nil, err
	}

	out := make([]UserMission, 0, len(missions))
	for _, m := range missions {
		um := UserMission{
			MissionID:   m.ID,
			CourseID:    m.CourseID,
			CourseTitle: titles[m.CourseID],
			Title:       m.Title,
			DueDate:     m.DueDate,
		}
		var row *models.MissionProgress
		if r, ok := rows[m.ID]; ok {
			row = &r
			if r.IsChecked {
				um.CheckedAt = r.CheckedAt
			}
		}
		um.Status = progress.StatusAt(row, m.DueDate, now)
		out = append(out, um)
	}
	return out, nil
}

func activeUser(ctx context.Context, db *mongo.Database, id primitive.ObjectID) (*models.User, error) {
	u, err := userstore.New(db).GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("user %s: %w", id.Hex(), errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive() {
		return nil, fmt.Errorf("user %s: %w", id.Hex(), errs.ErrNotFound)
	}
	return u, nil
}

func coursesForUser(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) ([]models.Course, error) {
	groupIDs, err := membershipstore.New(db).GroupIDsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(groupIDs) == 0 {
		return nil, nil
	}
	return coursestore.New(db).ListByGroups(ctx, groupIDs)
}
