// internal/app/store/queries/roster/roster.go
package roster

import (
	"context"
	"fmt"

	coursestore "github.com/dalemusser/coachhub/internal/app/store/courses"
	groupstore "github.com/dalemusser/coachhub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/coachhub/internal/app/store/memberships"
	organizationstore "github.com/dalemusser/coachhub/internal/app/store/organizations"
	orgmembershipstore "github.com/dalemusser/coachhub/internal/app/store/orgmemberships"
	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ResolveRoster returns the students reachable from a coach: every active
// user sharing at least one group with the coach, excluding the coach.
// Fails with errs.ErrNotFound unless coachID is an active coach or admin.
// A coach with no groups gets an empty page.
func ResolveRoster(ctx context.Context, db *mongo.Database, coachID primitive.ObjectID, f Filter) (Page, error) {
	coach, err := userstore.New(db).GetByID(ctx, coachID)
	if err == mongo.ErrNoDocuments {
		return Page{}, fmt.Errorf("coach %s: %w", coachID.Hex(), errs.ErrNotFound)
	}
	if err != nil {
		return Page{}, err
	}
	if !coach.IsActive() || !coach.IsCoach() {
		return Page{}, fmt.Errorf("coach %s: %w", coachID.Hex(), errs.ErrNotFound)
	}

	memberships := membershipstore.New(db)
	groupIDs, err := memberships.GroupIDsForUser(ctx, coachID)
	if err != nil {
		return Page{}, err
	}
	if len(groupIDs) == 0 {
		return EmptyPage(), nil
	}

	rows, err := memberships.ListByGroups(ctx, groupIDs, "")
	if err != nil {
		return Page{}, err
	}
	userIDs := distinctUsers(rows, coachID)

	entries, err := loadEntries(ctx, db, userIDs, groupIDs)
	if err != nil {
		return Page{}, err
	}
	return Assemble(entries, f), nil
}

// ResolveOrgRoster returns every active user holding a MEMBER role in a
// group attached to the organization. Fails with errs.ErrNotFound when
// the organization does not exist.
func ResolveOrgRoster(ctx context.Context, db *mongo.Database, orgID primitive.ObjectID, f Filter) (Page, error) {
	if _, err := organizationstore.New(db).GetByID(ctx, orgID); err != nil {
		if err == mongo.ErrNoDocuments {
			return Page{}, fmt.Errorf("organization %s: %w", orgID.Hex(), errs.ErrNotFound)
		}
		return Page{}, err
	}

	groupIDs, err := groupstore.New(db).IDsByOrg(ctx, orgID)
	if err != nil {
		return Page{}, err
	}
	if len(groupIDs) == 0 {
		return EmptyPage(), nil
	}

	rows, err := membershipstore.New(db).ListByGroups(ctx, groupIDs, models.GroupRoleMember)
	if err != nil {
		return Page{}, err
	}

	entries, err := loadEntries(ctx, db, distinctUsers(rows, primitive.NilObjectID), groupIDs)
	if err != nil {
		return Page{}, err
	}
	return Assemble(entries, f), nil
}

func distinctUsers(rows []models.GroupMembership, exclude primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(rows))
	out := make([]primitive.ObjectID, 0, len(rows))
	for _, m := range rows {
		if m.UserID == exclude || seen[m.UserID] {
			continue
		}
		seen[m.UserID] = true
		out = append(out, m.UserID)
	}
	return out
}

// loadEntries joins users with their organizations, the subset of their
// group memberships inside groupIDs, and the courses those groups run.
// Disabled users are dropped.
func loadEntries(ctx context.Context, db *mongo.Database, userIDs, groupIDs []primitive.ObjectID) ([]Entry, error) {
	users, err := userstore.New(db).ActiveByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	activeIDs := make([]primitive.ObjectID, 0, len(users))
	for _, u := range users {
		activeIDs = append(activeIDs, u.ID)
	}

	// Organizations.
	oms, err := orgmembershipstore.New(db).ListByUsers(ctx, activeIDs)
	if err != nil {
		return nil, err
	}
	orgIDs := make([]primitive.ObjectID, 0, len(oms))
	for _, om := range oms {
		orgIDs = append(orgIDs, om.OrganizationID)
	}
	orgList, err := organizationstore.New(db).GetByIDs(ctx, orgIDs)
	if err != nil {
		return nil, err
	}
	orgs := make(map[primitive.ObjectID]models.Organization, len(orgList))
	for _, o := range orgList {
		orgs[o.ID] = o
	}
	orgsByUser := make(map[primitive.ObjectID][]OrgRef)
	for _, om := range oms {
		o, ok := orgs[om.OrganizationID]
		if !ok {
			continue
		}
		orgsByUser[om.UserID] = append(orgsByUser[om.UserID], OrgRef{
			ID:                o.ID,
			Name:              o.Name,
			OrganizationEmail: om.OrganizationEmail,
		})
	}

	// Groups inside the scope.
	gms, err := membershipstore.New(db).ListForUsersInGroups(ctx, activeIDs, groupIDs)
	if err != nil {
		return nil, err
	}
	groups, err := groupstore.New(db).GetByIDs(ctx, groupIDs)
	if err != nil {
		return nil, err
	}
	groupsByUser := make(map[primitive.ObjectID][]GroupRef)
	for _, gm := range gms {
		groupsByUser[gm.UserID] = append(groupsByUser[gm.UserID], GroupRef{
			ID:   gm.GroupID,
			Name: groups[gm.GroupID].Name,
			Role: gm.Role,
		})
	}

	// Courses run for those groups.
	courses, err := coursestore.New(db).ListByGroups(ctx, groupIDs)
	if err != nil {
		return nil, err
	}
	coursesByGroup := make(map[primitive.ObjectID][]models.Course)
	for _, c := range courses {
		for _, gid := range c.GroupIDs {
			coursesByGroup[gid] = append(coursesByGroup[gid], c)
		}
	}

	entries := make([]Entry, 0, len(users))
	for _, u := range users {
		e := Entry{
			UserID:        u.ID,
			FullName:      u.FullName,
			Email:         u.Email,
			Phone:         u.Phone,
			CreatedAt:     u.CreatedAt,
			Organizations: orgsByUser[u.ID],
			Groups:        groupsByUser[u.ID],
			Courses:       []CourseRef{},
		}
		if e.Organizations == nil {
			e.Organizations = []OrgRef{}
		}
		if e.Groups == nil {
			e.Groups = []GroupRef{}
		}
		seen := make(map[primitive.ObjectID]bool)
		for _, g := range e.Groups {
			for _, c := range coursesByGroup[g.ID] {
				if seen[c.ID] {
					continue
				}
				seen[c.ID] = true
				e.Courses = append(e.Courses, CourseRef{ID: c.ID, Title: c.Title})
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
