// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleAdmin   = "admin"
	RoleCoach   = "coach"
	RoleStudent = "student"
)

// User statuses. A disabled user is invisible to rosters and invitation matching.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// User represents admins, coaches, and students.
//
// NOTE:
//   - Group membership is not embedded on User.
//     Use the group_memberships collection to discover a user's groups.
//   - Email is stored lowercased; matching is case-insensitive.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role       string             `bson:"role" json:"role"` // admin | coach | student
	Status     string             `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the user is visible to roster and invitation lookups.
func (u User) IsActive() bool { return u.Status != StatusDisabled }

// IsCoach reports whether the user holds a coach-equivalent role.
func (u User) IsCoach() bool { return u.Role == RoleCoach || u.Role == RoleAdmin }
