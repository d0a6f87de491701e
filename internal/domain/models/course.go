// internal/domain/models/course.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course runs for the groups listed in GroupIDs.
type Course struct {
	ID        primitive.ObjectID   `bson:"_id" json:"id"`
	Title     string               `bson:"title" json:"title"`
	StartDate time.Time            `bson:"start_date" json:"start_date"`
	EndDate   time.Time            `bson:"end_date" json:"end_date"`
	GroupIDs  []primitive.ObjectID `bson:"group_ids" json:"group_ids"`
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
}
