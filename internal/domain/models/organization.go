// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization includes a case/diacritic-insensitive name for search/sort.
// EmailDomain is optional; when set it is unique and drives self-enrollment
// by verified email. Code is the random join code.
type Organization struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	EmailDomain string             `bson:"email_domain,omitempty" json:"email_domain,omitempty"`
	Code        string             `bson:"code" json:"code"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
