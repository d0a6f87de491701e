// internal/app/store/memberships/membershipstore.go
package membershipstore

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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_memberships")}
}

var errBadRole = errors.New(`role must be "ADMIN", "MODERATOR" or "MEMBER"`)

var ErrDuplicateMembership = errors.New("user is already a member of this group")

func validRole(role string) bool {
	switch role {
	case models.GroupRoleAdmin, models.GroupRoleModerator, models.GroupRoleMember:
		return true
	}
	return false
}

// Add creates a membership. A second add for the same (group, user) returns
// ErrDuplicateMembership.
func (s *Store) Add(ctx context.Context, groupID, userID primitive.ObjectID, role string) error {
	role = normalize.GroupRole(role)
	if !validRole(role) {
		return errBadRole
	}

	_, err := s.c.InsertOne(ctx, models.GroupMembership{
		GroupID:   groupID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMembership
		}
		return err
	}
	return nil
}

// Remove deletes the membership document for (groupID, userID).
func (s *Store) Remove(ctx context.Context, groupID, userID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"group_id": groupID, "user_id": userID})
	return err
}

// MembershipEntry represents a user to add to a group.
type MembershipEntry struct {
	UserID primitive.ObjectID
	Role   string // ADMIN | MODERATOR | MEMBER
}

// AddBatchResult contains counts from a batch membership add operation.
type AddBatchResult struct {
	Added      int
	Duplicates int
	// DuplicateUserIDs lists the entries rejected by the unique index.
	DuplicateUserIDs []primitive.ObjectID
}

// AddBatch adds multiple memberships in a single unordered insert.
// Duplicates are counted, not treated as errors; any other write error is returned.
func (s *Store) AddBatch(ctx context.Context, groupID primitive.ObjectID, entries []MembershipEntry) (AddBatchResult, error) {
	if len(entries) == 0 {
		return AddBatchResult{}, nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		role := normalize.GroupRole(e.Role)
		if !validRole(role) {
			return AddBatchResult{}, errBadRole
		}
		docs = append(docs, models.GroupMembership{
			GroupID:   groupID,
			UserID:    e.UserID,
			Role:      role,
			CreatedAt: now,
		})
	}

	// ordered:false so every insert is attempted even if some collide.
	_, err := s.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return AddBatchResult{Added: len(entries)}, nil
	}

	var bulkErr mongo.BulkWriteException
	if !errors.As(err, &bulkErr) {
		return AddBatchResult{}, err
	}
	res := AddBatchResult{}
	for _, we := range bulkErr.WriteErrors {
		if we.Code != 11000 {
			return AddBatchResult{}, err
		}
		if we.Index >= 0 && we.Index < len(entries) {
			res.DuplicateUserIDs = append(res.DuplicateUserIDs, entries[we.Index].UserID)
		}
	}
	if bulkErr.WriteConcernError != nil {
		return AddBatchResult{}, err
	}
	res.Duplicates = len(bulkErr.WriteErrors)
	res.Added = len(entries) - res.Duplicates
	return res, nil
}

// Exists checks if a membership exists for the given group and user.
func (s *Store) Exists(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Role returns the user's role in the group, or "" when not a member.
func (s *Store) Role(ctx context.Context, groupID, userID primitive.ObjectID) (string, error) {
	var gm models.GroupMembership
	err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID},
		options.FindOne().SetProjection(bson.M{"role": 1})).Decode(&gm)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return gm.Role, nil
}

// GroupIDsForUser returns the ids of every group the user belongs to.
func (s *Store) GroupIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	ids, err := s.c.Distinct(ctx, "group_id", bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	return toObjectIDs(ids), nil
}

// ListByGroups returns memberships whose group is in groupIDs, optionally
// restricted to one role. An empty role returns every membership.
func (s *Store) ListByGroups(ctx context.Context, groupIDs []primitive.ObjectID, role string) ([]models.GroupMembership, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	filter := bson.M{"group_id": bson.M{"$in": groupIDs}}
	if role != "" {
		filter["role"] = role
	}
	return s.find(ctx, filter)
}

// ListForUsersInGroups returns the memberships of userIDs restricted to groupIDs.
func (s *Store) ListForUsersInGroups(ctx context.Context, userIDs, groupIDs []primitive.ObjectID) ([]models.GroupMembership, error) {
	if len(userIDs) == 0 || len(groupIDs) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{
		"user_id":  bson.M{"$in": userIDs},
		"group_id": bson.M{"$in": groupIDs},
	})
}

// MemberSet returns which of userIDs already belong to groupID.
func (s *Store) MemberSet(ctx context.Context, groupID primitive.ObjectID, userIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	out := make(map[primitive.ObjectID]bool)
	if len(userIDs) == 0 {
		return out, nil
	}
	ids, err := s.c.Distinct(ctx, "user_id", bson.M{
		"group_id": groupID,
		"user_id":  bson.M{"$in": userIDs},
	})
	if err != nil {
		return nil, err
	}
	for _, id := range toObjectIDs(ids) {
		out[id] = true
	}
	return out, nil
}

// CountByGroup returns the count of memberships for a group, optionally filtered by role.
func (s *Store) CountByGroup(ctx context.Context, groupID primitive.ObjectID, role string) (int64, error) {
	filter := bson.M{"group_id": groupID}
	if role != "" {
		filter["role"] = role
	}
	return s.c.CountDocuments(ctx, filter)
}

// DeleteByGroup removes all memberships for a group.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.GroupMembership, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var memberships []models.GroupMembership
	if err := cur.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

func toObjectIDs(vals []interface{}) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(vals))
	for _, v := range vals {
		if id, ok := v.(primitive.ObjectID); ok {
			out = append(out, id)
		}
	}
	return out
}
