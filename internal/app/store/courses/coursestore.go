// internal/app/store/courses/coursestore.go
package coursestore

import (
	"context"

	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("courses")}
}

// ListByGroups returns every course running for at least one of groupIDs,
// ordered by start_date then _id.
func (s *Store) ListByGroups(ctx context.Context, groupIDs []primitive.ObjectID) ([]models.Course, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"group_ids": bson.M{"$in": groupIDs}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Course
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
