package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert test %s: %v", coll, err)
	}
}

// CreateOrganization creates a test organization. emailDomain may be empty.
func (f *Fixtures) CreateOrganization(ctx context.Context, name, emailDomain string) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org := models.Organization{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		EmailDomain: emailDomain,
		Code:        primitive.NewObjectID().Hex()[16:],
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "organizations", org)
	return org
}

// CreateUser creates an active test user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()
	return f.createUser(ctx, fullName, email, role, models.StatusActive)
}

// CreateCoach creates an active coach.
func (f *Fixtures) CreateCoach(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleCoach)
}

// CreateStudent creates an active student.
func (f *Fixtures) CreateStudent(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleStudent)
}

// CreateDisabledUser creates a student with disabled status.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.createUser(ctx, fullName, email, models.RoleStudent, models.StatusDisabled)
}

func (f *Fixtures) createUser(ctx context.Context, fullName, email, role, status string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		Role:       role,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "users", user)
	return user
}

// SetUserPhone sets a user's phone number.
func (f *Fixtures) SetUserPhone(ctx context.Context, userID primitive.ObjectID, phone string) {
	f.t.Helper()
	_, err := f.db.Collection("users").UpdateByID(ctx, userID, bson.M{"$set": bson.M{"phone": phone}})
	if err != nil {
		f.t.Fatalf("failed to set phone: %v", err)
	}
}

// CreateGroup creates a test group. orgID may be nil.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, orgID *primitive.ObjectID) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	group := models.Group{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NameCI:         text.Fold(name),
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.insert(ctx, "groups", group)
	return group
}

// CreateGroupMembership adds a user to a group with the given role.
func (f *Fixtures) CreateGroupMembership(ctx context.Context, userID, groupID primitive.ObjectID, role string) models.GroupMembership {
	f.t.Helper()

	gm := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	f.insert(ctx, "group_memberships", gm)
	return gm
}

// CreateOrgMembership links a user to an organization as MEMBER.
// orgEmail may be empty.
func (f *Fixtures) CreateOrgMembership(ctx context.Context, userID, orgID primitive.ObjectID, orgEmail string) models.OrganizationMembership {
	f.t.Helper()

	om := models.OrganizationMembership{
		ID:                primitive.NewObjectID(),
		UserID:            userID,
		OrganizationID:    orgID,
		OrganizationEmail: orgEmail,
		Role:              models.OrgRoleMember,
		CreatedAt:         time.Now().UTC(),
	}
	f.insert(ctx, "organization_memberships", om)
	return om
}

// CreateCourse creates a course running for the given groups.
func (f *Fixtures) CreateCourse(ctx context.Context, title string, groupIDs ...primitive.ObjectID) models.Course {
	f.t.Helper()

	now := time.Now().UTC()
	if groupIDs == nil {
		groupIDs = []primitive.ObjectID{}
	}
	c := models.Course{
		ID:        primitive.NewObjectID(),
		Title:     title,
		StartDate: now.AddDate(0, 0, -7),
		EndDate:   now.AddDate(0, 1, 0),
		GroupIDs:  groupIDs,
		CreatedAt: now,
	}
	f.insert(ctx, "courses", c)
	return c
}

// CreateMission creates a mission in a course.
func (f *Fixtures) CreateMission(ctx context.Context, courseID primitive.ObjectID, title string, createdAt, dueDate time.Time) models.Mission {
	f.t.Helper()

	m := models.Mission{
		ID:        primitive.NewObjectID(),
		CourseID:  courseID,
		Title:     title,
		DueDate:   dueDate.UTC(),
		IsPublic:  true,
		CreatedAt: createdAt.UTC(),
	}
	f.insert(ctx, "missions", m)
	return m
}

// CreateProgress records a user's progress on a mission.
func (f *Fixtures) CreateProgress(ctx context.Context, userID, missionID primitive.ObjectID, checked bool) models.MissionProgress {
	f.t.Helper()

	p := models.MissionProgress{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		MissionID: missionID,
		IsChecked: checked,
	}
	if checked {
		now := time.Now().UTC().Truncate(time.Millisecond)
		p.CheckedAt = &now
	}
	f.insert(ctx, "mission_progress", p)
	return p
}
