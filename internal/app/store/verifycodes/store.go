// internal/app/store/verifycodes/store.go
package verifycodes

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const (
	// CodeLength is the number of digits in a verification code.
	CodeLength = 6
	// DefaultExpiry is how long a verification code is valid.
	DefaultExpiry = 10 * time.Minute
	// BcryptCost for hashing codes.
	BcryptCost = 10
	// MaxVerifyAttempts is the number of wrong guesses after which the code is discarded.
	MaxVerifyAttempts = 5
)

var (
	ErrNotFound = fmt.Errorf("verification code: %w", errs.ErrNotFound)
	ErrExpired  = fmt.Errorf("verification code: %w", errs.ErrExpired)
	ErrMismatch = fmt.Errorf("verification code: %w", errs.ErrMismatch)
)

// Code is the pending verification for one email address.
// The unique index on email keeps at most one row per address; expires_at
// carries a TTL index so abandoned rows are swept by the server.
type Code struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Email          string             `bson:"email"`
	OrganizationID primitive.ObjectID `bson:"organization_id"`
	UserID         primitive.ObjectID `bson:"user_id"`
	CodeHash       string             `bson:"code_hash"`
	ExpiresAt      time.Time          `bson:"expires_at"`
	CreatedAt      time.Time          `bson:"created_at"`
	Attempts       int                `bson:"attempts"`
}

// Store manages verification code records.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
	now    func() time.Time
	gen    func() (string, error)
}

// New creates a new Store with the specified expiry duration.
// If expiry is 0 or negative, DefaultExpiry (10 minutes) is used.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{
		c:      db.Collection("verification_codes"),
		expiry: expiry,
		now:    time.Now,
		gen:    GenerateCode,
	}
}

// Expiry returns the expiry duration for verification codes.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// SetClock replaces the time source. Used by tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// SetCodeGenerator replaces the code generator. Used by tests.
func (s *Store) SetCodeGenerator(gen func() (string, error)) {
	s.gen = gen
}

// Issue creates or replaces the code for email and returns the plain code
// together with the stored record. A re-issue resets attempts and expiry.
func (s *Store) Issue(ctx context.Context, email string, orgID, userID primitive.ObjectID) (string, Code, error) {
	email = normalize.Email(email)
	plain, err := s.gen()
	if err != nil {
		return "", Code{}, fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), BcryptCost)
	if err != nil {
		return "", Code{}, fmt.Errorf("hash code: %w", err)
	}

	now := s.now().UTC()
	doc := Code{
		Email:          email,
		OrganizationID: orgID,
		UserID:         userID,
		CodeHash:       string(hash),
		ExpiresAt:      now.Add(s.expiry),
		CreatedAt:      now,
	}
	opts := options.FindOneAndReplace().SetUpsert(true).SetReturnDocument(options.After)

	var saved Code
	err = s.c.FindOneAndReplace(ctx, bson.M{"email": email}, doc, opts).Decode(&saved)
	if err != nil && wafflemongo.IsDup(err) {
		// Two concurrent upserts raced on the unique email index; the
		// second one now finds the row and replaces it.
		err = s.c.FindOneAndReplace(ctx, bson.M{"email": email}, doc, opts).Decode(&saved)
	}
	if err != nil {
		return "", Code{}, fmt.Errorf("store code: %w", err)
	}
	return plain, saved, nil
}

// Check validates code for email on behalf of userID. It does not consume
// the row on success; callers delete it once the follow-up write succeeds.
//
// Failures, in order: ErrNotFound when there is no row for the email or it
// was issued to another user; ErrExpired when the row is past expires_at
// (the row is removed); ErrMismatch when the code is wrong (the attempt is
// counted and the row is removed once MaxVerifyAttempts is reached).
func (s *Store) Check(ctx context.Context, email, code string, userID primitive.ObjectID) (Code, error) {
	email = normalize.Email(email)

	var v Code
	if err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&v); err != nil {
		if err == mongo.ErrNoDocuments {
			return Code{}, ErrNotFound
		}
		return Code{}, err
	}
	if v.UserID != userID {
		return Code{}, ErrNotFound
	}

	if s.now().After(v.ExpiresAt) {
		if err := s.Delete(ctx, v.ID); err != nil {
			return Code{}, err
		}
		return Code{}, ErrExpired
	}

	if bcrypt.CompareHashAndPassword([]byte(v.CodeHash), []byte(code)) != nil {
		var after Code
		err := s.c.FindOneAndUpdate(ctx,
			bson.M{"_id": v.ID},
			bson.M{"$inc": bson.M{"attempts": 1}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&after)
		if err != nil && err != mongo.ErrNoDocuments {
			return Code{}, err
		}
		if err == nil && after.Attempts >= MaxVerifyAttempts {
			if err := s.Delete(ctx, v.ID); err != nil {
				return Code{}, err
			}
		}
		return Code{}, ErrMismatch
	}

	return v, nil
}

// Get returns the current row for email.
func (s *Store) Get(ctx context.Context, email string) (Code, error) {
	var v Code
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&v); err != nil {
		return Code{}, err
	}
	return v, nil
}

// Delete removes a code row by id. Missing rows are not an error.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// Consume removes the row v was read from. A row re-issued since v was read
// carries a different hash and is left in place.
func (s *Store) Consume(ctx context.Context, v Code) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": v.ID, "code_hash": v.CodeHash})
	return err
}

// GenerateCode returns a uniformly random CodeLength-digit numeric code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}

// DeleteExpired removes every row whose expires_at has passed and returns
// how many were removed. The TTL index does the same eventually; this runs
// on a tighter schedule.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": s.now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
