// internal/app/store/orgmemberships/orgmembershipstore.go
package orgmembershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organization_memberships")}
}

// ErrDuplicateMembership is returned when the user already belongs to the organization.
var ErrDuplicateMembership = errors.New("user is already a member of this organization")

var errBadRole = errors.New(`role must be "ADMIN" or "MEMBER"`)

// Add links a user to an organization. orgEmail may be empty.
func (s *Store) Add(ctx context.Context, userID, orgID primitive.ObjectID, orgEmail, role string) (models.OrganizationMembership, error) {
	role = normalize.GroupRole(role)
	if role != models.OrgRoleAdmin && role != models.OrgRoleMember {
		return models.OrganizationMembership{}, errBadRole
	}
	om := models.OrganizationMembership{
		ID:                primitive.NewObjectID(),
		UserID:            userID,
		OrganizationID:    orgID,
		OrganizationEmail: normalize.Email(orgEmail),
		Role:              role,
		CreatedAt:         time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, om); err != nil {
		if wafflemongo.IsDup(err) {
			return models.OrganizationMembership{}, ErrDuplicateMembership
		}
		return models.OrganizationMembership{}, err
	}
	return om, nil
}

// Exists reports whether the user already belongs to the organization.
func (s *Store) Exists(ctx context.Context, userID, orgID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "organization_id": orgID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByUsers returns the organization memberships of every user in userIDs.
func (s *Store) ListByUsers(ctx context.Context, userIDs []primitive.ObjectID) ([]models.OrganizationMembership, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}})
}

// ListByOrgEmails returns memberships whose organization_email is in emails.
// Callers pass normalized addresses and filter out disabled users themselves.
func (s *Store) ListByOrgEmails(ctx context.Context, emails []string) ([]models.OrganizationMembership, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"organization_email": bson.M{"$in": emails}})
}

// Remove deletes the (user, organization) membership.
func (s *Store) Remove(ctx context.Context, userID, orgID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"user_id": userID, "organization_id": orgID})
	return err
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.OrganizationMembership, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.OrganizationMembership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
