// internal/app/store/queries/invitations/invitations.go
package invitations

import (
	"context"
	"errors"
	"fmt"

	groupstore "github.com/dalemusser/coachhub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/coachhub/internal/app/store/memberships"
	orgmembershipstore "github.com/dalemusser/coachhub/internal/app/store/orgmemberships"
	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/reconcile"
	"github.com/dalemusser/coachhub/internal/app/system/txn"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// errMembershipRaced aborts a commit attempt whose insert hit memberships
// created after the pre-check.
var errMembershipRaced = errors.New("membership created concurrently")

// checkGroup verifies the assertion names groupID and the group exists.
func checkGroup(ctx context.Context, db *mongo.Database, groupID primitive.ObjectID, a reconcile.AdminAssertion) (models.Group, error) {
	if !a.CoversGroup(groupID) {
		return models.Group{}, fmt.Errorf("group %s: %w", groupID.Hex(), errs.ErrNotFound)
	}
	g, err := groupstore.New(db).GetByID(ctx, groupID)
	if err == mongo.ErrNoDocuments {
		return models.Group{}, fmt.Errorf("group %s: %w", groupID.Hex(), errs.ErrNotFound)
	}
	if err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Preview resolves candidate emails against active users (by primary email)
// and organization memberships (by organization email) and partitions the
// result against the group's members. It performs no writes.
func Preview(ctx context.Context, db *mongo.Database, groupID primitive.ObjectID, candidates []string, a reconcile.AdminAssertion) (reconcile.Plan, error) {
	if _, err := checkGroup(ctx, db, groupID, a); err != nil {
		return reconcile.Plan{}, err
	}

	emails, err := reconcile.NormalizeCandidates(candidates)
	if err != nil {
		return reconcile.Plan{}, err
	}

	users := userstore.New(db)
	byEmail, err := users.ActiveByEmails(ctx, emails)
	if err != nil {
		return reconcile.Plan{}, err
	}
	matches := make([]reconcile.Match, 0, len(byEmail))
	for _, u := range byEmail {
		matches = append(matches, reconcile.Match{Email: u.Email, User: u})
	}

	oms, err := orgmembershipstore.New(db).ListByOrgEmails(ctx, emails)
	if err != nil {
		return reconcile.Plan{}, err
	}
	if len(oms) > 0 {
		ids := make([]primitive.ObjectID, 0, len(oms))
		for _, om := range oms {
			ids = append(ids, om.UserID)
		}
		active, err := users.ActiveByIDs(ctx, ids)
		if err != nil {
			return reconcile.Plan{}, err
		}
		byID := make(map[primitive.ObjectID]models.User, len(active))
		for _, u := range active {
			byID[u.ID] = u
		}
		for _, om := range oms {
			if u, ok := byID[om.UserID]; ok {
				matches = append(matches, reconcile.Match{Email: om.OrganizationEmail, User: u})
			}
		}
	}

	seen := make(map[primitive.ObjectID]bool, len(matches))
	resolved := make([]primitive.ObjectID, 0, len(matches))
	for _, m := range matches {
		if !seen[m.User.ID] {
			seen[m.User.ID] = true
			resolved = append(resolved, m.User.ID)
		}
	}
	members, err := membershipstore.New(db).MemberSet(ctx, groupID, resolved)
	if err != nil {
		return reconcile.Plan{}, err
	}

	return reconcile.Partition(emails, matches, members), nil
}

// CommitResult reports what a commit changed.
type CommitResult struct {
	GroupID        primitive.ObjectID   `json:"group_id"`
	Added          []primitive.ObjectID `json:"added"`
	AlreadyMembers []primitive.ObjectID `json:"already_members"`
	// OrganizationID is the group's organization, if any.
	OrganizationID *primitive.ObjectID `json:"-"`
}

// Commit adds userIDs to the group as MEMBERs. Every id must name an
// existing active user (errs.ErrInvalidInput otherwise). Users already in
// the group, including ones added concurrently, are reported in
// AlreadyMembers rather than failing the commit.
func Commit(ctx context.Context, db *mongo.Database, log *zap.Logger, groupID primitive.ObjectID, userIDs []primitive.ObjectID, a reconcile.AdminAssertion) (CommitResult, error) {
	g, err := checkGroup(ctx, db, groupID, a)
	if err != nil {
		return CommitResult{}, err
	}

	ids := dedupeIDs(userIDs)
	if len(ids) == 0 {
		return CommitResult{}, fmt.Errorf("no users to add: %w", errs.ErrInvalidInput)
	}
	active, err := userstore.New(db).ActiveByIDs(ctx, ids)
	if err != nil {
		return CommitResult{}, err
	}
	if len(active) != len(ids) {
		found := make(map[primitive.ObjectID]bool, len(active))
		for _, u := range active {
			found[u.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return CommitResult{}, fmt.Errorf("user %s is not an active user: %w", id.Hex(), errs.ErrInvalidInput)
			}
		}
	}

	ms := membershipstore.New(db)
	var result CommitResult
	// ours holds ids a previous attempt inserted. On servers without
	// transactions those rows survive the failed attempt.
	ours := map[primitive.ObjectID]bool{}

	for attempt := 0; attempt < 2; attempt++ {
		err := txn.Run(ctx, db, log, func(tx context.Context) error {
			result = CommitResult{
				GroupID:        groupID,
				Added:          []primitive.ObjectID{},
				AlreadyMembers: []primitive.ObjectID{},
				OrganizationID: g.OrganizationID,
			}

			existing, err := ms.MemberSet(tx, groupID, ids)
			if err != nil {
				return err
			}
			entries := make([]membershipstore.MembershipEntry, 0, len(ids))
			for _, id := range ids {
				switch {
				case existing[id] && ours[id]:
					result.Added = append(result.Added, id)
				case existing[id]:
					result.AlreadyMembers = append(result.AlreadyMembers, id)
				default:
					entries = append(entries, membershipstore.MembershipEntry{UserID: id, Role: models.GroupRoleMember})
				}
			}

			res, err := ms.AddBatch(tx, groupID, entries)
			if err != nil {
				return err
			}
			dup := make(map[primitive.ObjectID]bool, len(res.DuplicateUserIDs))
			for _, id := range res.DuplicateUserIDs {
				dup[id] = true
			}
			if res.Duplicates > 0 && attempt == 0 {
				for _, e := range entries {
					if !dup[e.UserID] {
						ours[e.UserID] = true
					}
				}
				return errMembershipRaced
			}
			for _, e := range entries {
				if dup[e.UserID] {
					result.AlreadyMembers = append(result.AlreadyMembers, e.UserID)
				} else {
					result.Added = append(result.Added, e.UserID)
				}
			}
			return nil
		})
		if errors.Is(err, errMembershipRaced) {
			continue
		}
		if err != nil {
			return CommitResult{}, err
		}
		return result, nil
	}
	return CommitResult{}, errMembershipRaced
}

func dedupeIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
