// internal/domain/models/missionprogress.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MissionProgress records one user's progress on one mission.
// Exactly one document per (user_id, mission_id).
type MissionProgress struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	MissionID primitive.ObjectID `bson:"mission_id" json:"mission_id"`
	IsChecked bool               `bson:"is_checked" json:"is_checked"`
	CheckedAt *time.Time         `bson:"checked_at,omitempty" json:"checked_at,omitempty"`
	ContentAt *time.Time         `bson:"content_at,omitempty" json:"content_at,omitempty"`
}
