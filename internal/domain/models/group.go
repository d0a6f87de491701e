// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group represents a cohort that coaches and students share.
//
// NOTE:
//   - Member lists are not embedded on Group.
//     All membership is stored in the group_memberships collection.
//   - OrganizationID is optional; org rosters only see groups that set it.
type Group struct {
	ID             primitive.ObjectID  `bson:"_id" json:"id"`
	Name           string              `bson:"name" json:"name"`
	NameCI         string              `bson:"name_ci" json:"-"`
	OrganizationID *primitive.ObjectID `bson:"organization_id,omitempty" json:"organization_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
