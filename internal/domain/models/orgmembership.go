// internal/domain/models/orgmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization membership roles.
const (
	OrgRoleAdmin  = "ADMIN"
	OrgRoleMember = "MEMBER"
)

// OrganizationMembership links a user to an organization.
// Exactly one document per (user_id, organization_id).
// OrganizationEmail is an address distinct from the user's login email,
// used for domain matching and invitation lookups.
type OrganizationMembership struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID `bson:"user_id" json:"user_id"`
	OrganizationID    primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	OrganizationEmail string             `bson:"organization_email,omitempty" json:"organization_email,omitempty"`
	Role              string             `bson:"role" json:"role"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}
