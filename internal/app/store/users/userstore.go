package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "admin"|"coach"|"student"`)
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
)

// activeFilter excludes disabled users. Documents with no status are active.
func activeFilter() bson.M {
	return bson.M{"status": bson.M{"$ne": models.StatusDisabled}}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDs loads users by ObjectID, including disabled ones.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ActiveByIDs returns the non-disabled users among ids.
func (s *Store) ActiveByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	filter := activeFilter()
	filter["_id"] = bson.M{"$in": ids}
	return s.find(ctx, filter)
}

// ActiveByEmails returns the non-disabled users whose primary email is in
// emails. Callers pass normalized addresses.
func (s *Store) ActiveByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	filter := activeFilter()
	filter["email"] = bson.M{"$in": emails}
	return s.find(ctx, filter)
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a new user after normalizing & validating fields.
// It does not write any group membership.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	if u.Status == "" {
		u.Status = models.StatusActive
	}

	switch u.Role {
	case models.RoleAdmin, models.RoleCoach, models.RoleStudent:
	default:
		return models.User{}, errBadRole
	}
	if u.Status != models.StatusActive && u.Status != models.StatusDisabled {
		return models.User{}, errBadStatus
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// SetStatus enables or disables a user.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	if status != models.StatusActive && status != models.StatusDisabled {
		return errBadStatus
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetRole changes a user's site role.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	switch role {
	case models.RoleAdmin, models.RoleCoach, models.RoleStudent:
	default:
		return errBadRole
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"role":       role,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
