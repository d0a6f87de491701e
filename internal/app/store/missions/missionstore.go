// internal/app/store/missions/missionstore.go
package missionstore

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
	return &Store{c: db.Collection("missions")}
}

// ListByCourses returns the missions of the given courses ordered by
// due_date then _id. Callers rely on this order for display.
func (s *Store) ListByCourses(ctx context.Context, courseIDs []primitive.ObjectID) ([]models.Mission, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"course_id": bson.M{"$in": courseIDs}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Mission
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
