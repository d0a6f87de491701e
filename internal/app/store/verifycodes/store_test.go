package verifycodes_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/coachhub/internal/app/store/verifycodes"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/dalemusser/coachhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func fixedCode(code string) func() (string, error) {
	return func() (string, error) { return code, nil }
}

func TestNew_DefaultExpiry(t *testing.T) {
	db := testutil.SetupTestDB(t)

	for _, exp := range []time.Duration{0, -time.Minute} {
		store := verifycodes.New(db, exp)
		if store.Expiry() != verifycodes.DefaultExpiry {
			t.Errorf("New(%v): expected default expiry %v, got %v", exp, verifycodes.DefaultExpiry, store.Expiry())
		}
	}
	if got := verifycodes.New(db, 30*time.Minute).Expiry(); got != 30*time.Minute {
		t.Errorf("expected custom expiry 30m, got %v", got)
	}
}

func TestGenerateCode_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := verifycodes.GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode failed: %v", err)
		}
		if len(code) != verifycodes.CodeLength {
			t.Fatalf("expected %d digits, got %q", verifycodes.CodeLength, code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("expected digits only, got %q", code)
			}
		}
	}
}

func TestStore_Issue_ReplacesPrevious(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := verifycodes.New(db, verifycodes.DefaultExpiry)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	orgID := primitive.NewObjectID()

	store.SetCodeGenerator(fixedCode("111111"))
	_, first, err := store.Issue(ctx, "Kim@Acme.org", orgID, userID)
	if err != nil {
		t.Fatalf("first Issue failed: %v", err)
	}
	if first.Email != "kim@acme.org" {
		t.Errorf("Email: got %q, want %q", first.Email, "kim@acme.org")
	}

	store.SetCodeGenerator(fixedCode("222222"))
	_, second, err := store.Issue(ctx, "kim@acme.org", orgID, userID)
	if err != nil {
		t.Fatalf("second Issue failed: %v", err)
	}

	n, err := db.Collection("verification_codes").CountDocuments(ctx, bson.M{"email": "kim@acme.org"})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected exactly 1 row per email, got %d", n)
	}
	if second.CodeHash == first.CodeHash {
		t.Error("expected re-issue to replace the hash")
	}

	if _, err := store.Check(ctx, "kim@acme.org", "111111", userID); !errors.Is(err, errs.ErrMismatch) {
		t.Errorf("old code: expected ErrMismatch, got %v", err)
	}
	if _, err := store.Check(ctx, "kim@acme.org", "222222", userID); err != nil {
		t.Errorf("new code: expected success, got %v", err)
	}
}

func TestStore_Check(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := verifycodes.New(db, verifycodes.DefaultExpiry)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	orgID := primitive.NewObjectID()
	store.SetCodeGenerator(fixedCode("424242"))

	if _, _, err := store.Issue(ctx, "kim@acme.org", orgID, userID); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tests := []struct {
		name    string
		email   string
		code    string
		userID  primitive.ObjectID
		wantErr error
	}{
		{"unknown email", "nobody@acme.org", "424242", userID, errs.ErrNotFound},
		{"other user", "kim@acme.org", "424242", primitive.NewObjectID(), errs.ErrNotFound},
		{"wrong code", "kim@acme.org", "000000", userID, errs.ErrMismatch},
		{"correct code", " KIM@acme.org ", "424242", userID, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Check(ctx, tt.email, tt.code, tt.userID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Check failed: %v", err)
			}
			if got.OrganizationID != orgID {
				t.Errorf("OrganizationID: got %v, want %v", got.OrganizationID, orgID)
			}
		})
	}
}

func TestStore_Check_ExpiredDeletesRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := verifycodes.New(db, time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now()
	store.SetClock(func() time.Time { return now })
	store.SetCodeGenerator(fixedCode("424242"))
	userID := primitive.NewObjectID()

	if _, _, err := store.Issue(ctx, "kim@acme.org", primitive.NewObjectID(), userID); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	store.SetClock(func() time.Time { return now.Add(2 * time.Minute) })

	// Expiry wins over a correct code.
	if _, err := store.Check(ctx, "kim@acme.org", "424242", userID); !errors.Is(err, errs.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if _, err := store.Get(ctx, "kim@acme.org"); err != mongo.ErrNoDocuments {
		t.Errorf("expected expired row to be deleted, got %v", err)
	}
	if _, err := store.Check(ctx, "kim@acme.org", "424242", userID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("second check: expected ErrNotFound, got %v", err)
	}
}

func TestStore_Check_TooManyAttempts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := verifycodes.New(db, verifycodes.DefaultExpiry)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	store.SetCodeGenerator(fixedCode("424242"))
	if _, _, err := store.Issue(ctx, "kim@acme.org", primitive.NewObjectID(), userID); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	for i := 1; i < verifycodes.MaxVerifyAttempts; i++ {
		if _, err := store.Check(ctx, "kim@acme.org", "999999", userID); !errors.Is(err, errs.ErrMismatch) {
			t.Fatalf("attempt %d: expected ErrMismatch, got %v", i, err)
		}
		row, err := store.Get(ctx, "kim@acme.org")
		if err != nil {
			t.Fatalf("attempt %d: expected row to remain, got %v", i, err)
		}
		if row.Attempts != i {
			t.Errorf("attempt %d: Attempts got %d", i, row.Attempts)
		}
	}

	if _, err := store.Check(ctx, "kim@acme.org", "999999", userID); !errors.Is(err, errs.ErrMismatch) {
		t.Fatalf("final attempt: expected ErrMismatch, got %v", err)
	}
	if _, err := store.Get(ctx, "kim@acme.org"); err != mongo.ErrNoDocuments {
		t.Errorf("expected row deleted after %d attempts, got %v", verifycodes.MaxVerifyAttempts, err)
	}
}

func TestStore_DeleteExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := verifycodes.New(db, time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now()
	store.SetClock(func() time.Time { return base })
	if _, _, err := store.Issue(ctx, "old@example.com", primitive.NewObjectID(), primitive.NewObjectID()); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	store.SetClock(func() time.Time { return base.Add(50 * time.Second) })
	if _, _, err := store.Issue(ctx, "new@example.com", primitive.NewObjectID(), primitive.NewObjectID()); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	store.SetClock(func() time.Time { return base.Add(90 * time.Second) })
	n, err := store.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row deleted, got %d", n)
	}
	if _, err := store.Get(ctx, "old@example.com"); err != mongo.ErrNoDocuments {
		t.Errorf("expected expired row gone, got %v", err)
	}
	if _, err := store.Get(ctx, "new@example.com"); err != nil {
		t.Errorf("expected live row kept, got %v", err)
	}
}

func TestStore_Consume_KeepsReissuedRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := verifycodes.New(db, verifycodes.DefaultExpiry)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	orgID := primitive.NewObjectID()

	store.SetCodeGenerator(fixedCode("111111"))
	if _, _, err := store.Issue(ctx, "kim@acme.org", orgID, userID); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	checked, err := store.Check(ctx, "kim@acme.org", "111111", userID)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	store.SetCodeGenerator(fixedCode("222222"))
	_, reissued, err := store.Issue(ctx, "kim@acme.org", orgID, userID)
	if err != nil {
		t.Fatalf("re-Issue failed: %v", err)
	}
	if reissued.ID != checked.ID {
		t.Fatalf("expected re-issue to keep the row id")
	}

	if err := store.Consume(ctx, checked); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if _, err := store.Check(ctx, "kim@acme.org", "222222", userID); err != nil {
		t.Errorf("re-issued code should survive consuming the old one, got %v", err)
	}

	if err := store.Consume(ctx, reissued); err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if _, err := store.Get(ctx, "kim@acme.org"); err != mongo.ErrNoDocuments {
		t.Errorf("expected row consumed, got %v", err)
	}
}
