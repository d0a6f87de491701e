// internal/app/store/progress/progressstore.go
package progressstore

import (
	"context"

	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("mission_progress")}
}

// ListByMissions returns every progress row for the given missions.
func (s *Store) ListByMissions(ctx context.Context, missionIDs []primitive.ObjectID) ([]models.MissionProgress, error) {
	if len(missionIDs) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"mission_id": bson.M{"$in": missionIDs}})
}

// ByUserAndMissions returns the user's progress rows keyed by mission id.
func (s *Store) ByUserAndMissions(ctx context.Context, userID primitive.ObjectID, missionIDs []primitive.ObjectID) (map[primitive.ObjectID]models.MissionProgress, error) {
	out := make(map[primitive.ObjectID]models.MissionProgress)
	if len(missionIDs) == 0 {
		return out, nil
	}
	rows, err := s.find(ctx, bson.M{"user_id": userID, "mission_id": bson.M{"$in": missionIDs}})
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.MissionID] = r
	}
	return out, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.MissionProgress, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.MissionProgress
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
