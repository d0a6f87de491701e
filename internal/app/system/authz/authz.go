// internal/app/system/authz/authz.go
package authz

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	membershipstore "github.com/dalemusser/coachhub/internal/app/store/memberships"
	"github.com/dalemusser/coachhub/internal/app/system/auth"
	"github.com/dalemusser/coachhub/internal/app/system/reconcile"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "visitor", "", NilObjectID, false. ok=true means a signed-in user with a
// valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session; fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsAdmin reports whether the current request's user is a site admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleAdmin
}

// IsCoach reports whether the current request's user is a coach.
// Admins count as coaches.
func IsCoach(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && (role == models.RoleCoach || role == models.RoleAdmin)
}

// RoleLookup returns a user's role in a group, or "" when not a member.
type RoleLookup interface {
	Role(ctx context.Context, groupID, userID primitive.ObjectID) (string, error)
}

// AssertGroupAdmin checks that the signed-in user may administer groupID:
// site admins may administer any group, everyone else needs the ADMIN
// group role. It returns ErrUnauthorized when no one is signed in and
// ErrNotFound when the caller does not administer the group, so the group's
// existence is not revealed.
func AssertGroupAdmin(ctx context.Context, roles RoleLookup, r *http.Request, groupID primitive.ObjectID) (reconcile.AdminAssertion, error) {
	role, _, userID, ok := UserCtx(r)
	if !ok {
		return reconcile.AdminAssertion{}, fmt.Errorf("sign-in required: %w", errs.ErrUnauthorized)
	}
	if groupID.IsZero() {
		return reconcile.AdminAssertion{}, fmt.Errorf("group id: %w", errs.ErrInvalidInput)
	}
	if role == models.RoleAdmin {
		return reconcile.AdminAssertion{GroupID: groupID, ActorID: userID}, nil
	}

	gr, err := roles.Role(ctx, groupID, userID)
	if err != nil {
		return reconcile.AdminAssertion{}, err
	}
	if gr != models.GroupRoleAdmin {
		return reconcile.AdminAssertion{}, fmt.Errorf("group %s: %w", groupID.Hex(), errs.ErrNotFound)
	}
	return reconcile.AdminAssertion{GroupID: groupID, ActorID: userID}, nil
}

// AssertGroupAdminDB is AssertGroupAdmin backed by the memberships store.
func AssertGroupAdminDB(ctx context.Context, db *mongo.Database, r *http.Request, groupID primitive.ObjectID) (reconcile.AdminAssertion, error) {
	return AssertGroupAdmin(ctx, membershipstore.New(db), r, groupID)
}
