// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// CodeLength is the length of an organization join code.
	CodeLength = 8
	// MaxCodeAttempts bounds how many random codes Create tries before giving up.
	MaxCodeAttempts = 5

	// Unambiguous uppercase alphabet (no 0/O, 1/I/L).
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

var (
	// ErrDuplicateEmailDomain is returned when another organization already claims the domain.
	ErrDuplicateEmailDomain = errors.New("an organization with this email domain already exists")
	// ErrCodeGenerationExhausted is returned when every join code attempt collided.
	ErrCodeGenerationExhausted = errors.New("could not generate a unique organization code")
)

type Store struct {
	c       *mongo.Collection
	newCode func() (string, error)
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organizations"), newCode: GenerateCode}
}

// SetCodeGenerator replaces the join code source. Tests use it to force collisions.
func (s *Store) SetCodeGenerator(fn func() (string, error)) {
	s.newCode = fn
}

// GenerateCode returns a random join code of CodeLength characters.
func GenerateCode() (string, error) {
	b := make([]byte, CodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate org code: %w", err)
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}

// Create inserts an organization with a fresh join code. The unique index on
// code rejects collisions; Create retries up to MaxCodeAttempts times and then
// fails with ErrCodeGenerationExhausted.
func (s *Store) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	now := time.Now().UTC()
	org.Name = normalize.Name(org.Name)
	org.NameCI = text.Fold(org.Name)
	org.EmailDomain = normalize.Domain(org.EmailDomain)
	org.CreatedAt = now
	org.UpdatedAt = now

	for attempt := 0; attempt < MaxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return models.Organization{}, err
		}
		org.ID = primitive.NewObjectID()
		org.Code = code

		_, err = s.c.InsertOne(ctx, org)
		if err == nil {
			return org, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.Organization{}, err
		}
		if strings.Contains(err.Error(), "email_domain") {
			return models.Organization{}, ErrDuplicateEmailDomain
		}
		// code collision: try another
	}
	return models.Organization{}, ErrCodeGenerationExhausted
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error) {
	var org models.Organization
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// GetByCode loads an organization by its join code.
func (s *Store) GetByCode(ctx context.Context, code string) (models.Organization, error) {
	var org models.Organization
	err := s.c.FindOne(ctx, bson.M{"code": normalize.Code(code)}).Decode(&org)
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// GetByIDs loads multiple organizations by their ObjectIDs.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Organization, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var orgs []models.Organization
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// Patch lists the mutable organization fields. A nil field is left alone.
// A non-nil empty EmailDomain clears the domain.
type Patch struct {
	Name        *string
	EmailDomain *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.EmailDomain == nil
}

// Update applies only the fields present in p. An empty patch writes nothing.
// Returns mongo.ErrNoDocuments when the organization does not exist.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) error {
	if p.Empty() {
		return nil
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	update := bson.M{"$set": set}

	if p.Name != nil {
		name := normalize.Name(*p.Name)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if p.EmailDomain != nil {
		if d := normalize.Domain(*p.EmailDomain); d != "" {
			set["email_domain"] = d
		} else {
			// unset keeps the sparse unique index from seeing "".
			update["$unset"] = bson.M{"email_domain": ""}
		}
	}

	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmailDomain
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes an organization by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
