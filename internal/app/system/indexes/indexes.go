// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// collectionSpec is the desired index set for one collection.
type collectionSpec struct {
	name    string
	indexes []mongo.IndexModel
}

func specs() []collectionSpec {
	return []collectionSpec{
		{"users", userIndexes()},
		{"organizations", organizationIndexes()},
		{"organization_memberships", orgMembershipIndexes()},
		{"groups", groupIndexes()},
		{"group_memberships", groupMembershipIndexes()},
		{"courses", courseIndexes()},
		{"missions", missionIndexes()},
		{"mission_progress", missionProgressIndexes()},
		{"verification_codes", verificationCodeIndexes()},
		{"audit_events", auditIndexes()},
	}
}

/*
EnsureAll is called at startup. Each index set is reconciled idempotently.
Errors are aggregated so every problem is visible and startup can fail fast.
Uniqueness of memberships and codes depends on these indexes.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, s := range specs() {
		if err := ensureIndexSet(ctx, db.Collection(s.name), s.indexes); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name               string `bson:"name"`
	Key                bson.D `bson:"key"`
	Unique             *bool  `bson:"unique,omitempty"`
	Sparse             *bool  `bson:"sparse,omitempty"`
	ExpireAfterSeconds *int32 `bson:"expireAfterSeconds,omitempty"`
}

// desired is the comparable shape of a requested index.
type desired struct {
	name   string
	sig    string
	unique bool
	sparse bool
	ttl    *int32
}

func describe(m mongo.IndexModel) desired {
	d := desired{sig: keySig(m.Keys.(bson.D))}
	if o := m.Options; o != nil {
		if o.Name != nil {
			d.name = *o.Name
		}
		d.unique = o.Unique != nil && *o.Unique
		d.sparse = o.Sparse != nil && *o.Sparse
		d.ttl = o.ExpireAfterSeconds
	}
	return d
}

// sameOptions reports whether an existing index enforces what d asks for.
func (d desired) sameOptions(ex existingIndex) bool {
	if d.unique != (ex.Unique != nil && *ex.Unique) {
		return false
	}
	if d.sparse != (ex.Sparse != nil && *ex.Sparse) {
		return false
	}
	switch {
	case d.ttl == nil && ex.ExpireAfterSeconds == nil:
		return true
	case d.ttl == nil || ex.ExpireAfterSeconds == nil:
		return false
	default:
		return *d.ttl == *ex.ExpireAfterSeconds
	}
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// recreate drops an index and creates the desired one in its place.
func recreate(ctx context.Context, coll *mongo.Collection, oldName string, m mongo.IndexModel, d desired) error {
	if _, err := coll.Indexes().DropOne(ctx, oldName); err != nil {
		return fmt.Errorf("drop %s failed: %w", oldName, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		if isDuplicateKeyErr(err) && d.unique {
			return fmt.Errorf("cannot create unique index (duplicates present on %s)", d.sig)
		}
		return err
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		d := describe(m)
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.unique))

		ex, found := listExisting(ctx, coll)[d.sig]
		switch {
		case found && d.sameOptions(ex) && (d.name == "" || ex.Name == d.name):
			log.Debug("reusing existing index")

		case found:
			// Same keys under another name or with different options.
			if err := recreate(ctx, coll, ex.Name, m, d); err != nil {
				log.Warn("index recreate failed", zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), d.name, err))
				continue
			}
			log.Info("index dropped and recreated",
				zap.String("from", ex.Name),
				zap.Duration("took", time.Since(start)))

		default:
			if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
				msg := err.Error()
				if isDuplicateKeyErr(err) && d.unique {
					msg = "cannot create unique index (duplicates present)"
				}
				log.Warn("index ensure failed", zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): %s", coll.Name(), d.name, msg))
				continue
			}
			log.Info("index ensured", zap.Duration("took", time.Since(start)))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func userIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Email is unique and stored lowercased.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Roster ordering: newest first with _id tie-break.
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_users_created_id"),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_users_role_status"),
		},
	}
}

func organizationIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Join codes are random; collisions are rejected here and retried by the store.
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_orgs_code"),
		},
		// At most one organization per email domain; orgs without a domain are skipped.
		{
			Keys:    bson.D{{Key: "email_domain", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_orgs_email_domain"),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_orgs_nameci__id"),
		},
	}
}

func orgMembershipIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "organization_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_om_user_org"),
		},
		// Invitation matching by organization email.
		{
			Keys:    bson.D{{Key: "organization_email", Value: 1}},
			Options: options.Index().SetName("idx_om_org_email"),
		},
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "role", Value: 1}},
			Options: options.Index().SetName("idx_om_org_role"),
		},
	}
}

func groupIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}},
			Options: options.Index().SetName("idx_groups_org"),
		},
	}
}

func groupMembershipIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Exactly one membership per (user, group); a second insert is an already-member.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "group_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_gm_user_group"),
		},
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "role", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_gm_group_role_user"),
		},
	}
}

func courseIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_ids", Value: 1}},
			Options: options.Index().SetName("idx_courses_group_ids"),
		},
	}
}

func missionIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "course_id", Value: 1}, {Key: "due_date", Value: 1}},
			Options: options.Index().SetName("idx_missions_course_due"),
		},
	}
}

func missionProgressIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "mission_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_mp_user_mission"),
		},
		{
			Keys:    bson.D{{Key: "mission_id", Value: 1}, {Key: "is_checked", Value: 1}},
			Options: options.Index().SetName("idx_mp_mission_checked"),
		},
	}
}

func verificationCodeIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// One live code per email.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_vc_email"),
		},
		// Mongo's TTL monitor sweeps stale rows; reads still check expires_at.
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_vc_expires_at"),
		},
	}
}

func auditIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_ts"),
		},
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_org_ts"),
		},
	}
}
