// internal/app/store/queries/groupmembers/groupmembers.go
package groupmembers

import (
	"context"
	"time"

	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type GroupMember struct {
	User     models.User `bson:"user" json:"user"`
	Role     string      `bson:"role" json:"role"`
	JoinedAt time.Time   `bson:"created_at" json:"joined_at"`
}

// MemberFilter controls filtering for users in the membership list.
// Leave Status empty to include all statuses; leave Role empty for all roles.
type MemberFilter struct {
	Status string // "active" | "disabled" | ""
	Role   string // "ADMIN" | "MODERATOR" | "MEMBER" | ""
}

// ListMembers returns a group's memberships joined with their users.
// Order: ADMIN, MODERATOR, MEMBER; then by full_name_ci, then user _id.
func ListMembers(ctx context.Context, db *mongo.Database, groupID primitive.ObjectID, f MemberFilter) ([]GroupMember, error) {
	match := bson.M{"group_id": groupID}
	if f.Role != "" {
		match["role"] = f.Role
	}
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "user",
		}}},
		bson.D{{Key: "$unwind", Value: "$user"}},
	}

	if f.Status == models.StatusActive || f.Status == models.StatusDisabled {
		pipe = append(pipe, bson.D{{Key: "$match", Value: bson.M{"user.status": f.Status}}})
	}

	pipe = append(pipe,
		bson.D{{Key: "$addFields", Value: bson.M{
			"role_rank": bson.M{"$switch": bson.M{
				"branches": bson.A{
					bson.M{"case": bson.M{"$eq": bson.A{"$role", models.GroupRoleAdmin}}, "then": 0},
					bson.M{"case": bson.M{"$eq": bson.A{"$role", models.GroupRoleModerator}}, "then": 1},
				},
				"default": 2,
			}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "role_rank", Value: 1},
			{Key: "user.full_name_ci", Value: 1},
			{Key: "user._id", Value: 1},
		}}},
		bson.D{{Key: "$project", Value: bson.M{"user": "$user", "role": 1, "created_at": 1}}},
	)

	cur, err := db.Collection("group_memberships").Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []GroupMember{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
