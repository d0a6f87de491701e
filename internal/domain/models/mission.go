// internal/domain/models/mission.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Mission is a dated assignment inside a course.
type Mission struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	CourseID  primitive.ObjectID `bson:"course_id" json:"course_id"`
	Title     string             `bson:"title" json:"title"`
	DueDate   time.Time          `bson:"due_date" json:"due_date"`
	IsPublic  bool               `bson:"is_public" json:"is_public"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
