// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/coachhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Core collections this app uses
	ensure("users", usersSchema())
	ensure("organizations", orgsSchema())
	ensure("groups", groupsSchema())
	ensure("courses", coursesSchema())
	ensure("missions", missionsSchema())

	// Membership and progress collections
	ensure("group_memberships", groupMembershipsSchema())
	ensure("organization_memberships", orgMembershipsSchema())
	ensure("mission_progress", missionProgressSchema())
	ensure("verification_codes", verificationCodesSchema())

	// These don't strictly need validators; we still ensure the collections exist.
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// nonBlank matches a string with at least one non-space character.
func nonBlank() bson.M {
	return bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "role", "status"},
			"properties": bson.M{
				"full_name":    nonBlank(),
				"full_name_ci": bson.M{"bsonType": "string"},
				"email":        bson.M{"bsonType": "string"},
				"phone":        bson.M{"bsonType": "string"},
				"role":         bson.M{"enum": bson.A{models.RoleAdmin, models.RoleCoach, models.RoleStudent}},
				"status":       bson.M{"enum": bson.A{models.StatusActive, models.StatusDisabled}},
			},
		},
	}
}

func orgsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "code"},
			"properties": bson.M{
				"name":         nonBlank(),
				"name_ci":      nonBlank(),
				"code":         bson.M{"bsonType": "string", "minLength": 1},
				"email_domain": bson.M{"bsonType": "string", "minLength": 1},
			},
		},
	}
}

func groupsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci"},
			"properties": bson.M{
				"organization_id": bson.M{"bsonType": "objectId"},
				"name":            nonBlank(),
				"name_ci":         nonBlank(),
			},
		},
	}
}

func coursesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "group_ids"},
			"properties": bson.M{
				"title":      nonBlank(),
				"start_date": bson.M{"bsonType": "date"},
				"end_date":   bson.M{"bsonType": "date"},
				"group_ids":  bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
			},
		},
	}
}

func missionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"course_id", "title", "due_date"},
			"properties": bson.M{
				"course_id": bson.M{"bsonType": "objectId"},
				"title":     nonBlank(),
				"due_date":  bson.M{"bsonType": "date"},
				"is_public": bson.M{"bsonType": "bool"},
			},
		},
	}
}

func groupMembershipsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "group_id", "role"},
			"properties": bson.M{
				"user_id":    bson.M{"bsonType": "objectId"},
				"group_id":   bson.M{"bsonType": "objectId"},
				"role":       bson.M{"enum": bson.A{models.GroupRoleAdmin, models.GroupRoleModerator, models.GroupRoleMember}},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func orgMembershipsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "organization_id", "role"},
			"properties": bson.M{
				"user_id":            bson.M{"bsonType": "objectId"},
				"organization_id":    bson.M{"bsonType": "objectId"},
				"organization_email": bson.M{"bsonType": "string"},
				"role":               bson.M{"enum": bson.A{models.OrgRoleAdmin, models.OrgRoleMember}},
			},
		},
	}
}

func missionProgressSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "mission_id", "is_checked"},
			"properties": bson.M{
				"user_id":    bson.M{"bsonType": "objectId"},
				"mission_id": bson.M{"bsonType": "objectId"},
				"is_checked": bson.M{"bsonType": "bool"},
				"checked_at": bson.M{"bsonType": "date"},
				"content_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func verificationCodesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "organization_id", "user_id", "code_hash", "expires_at"},
			"properties": bson.M{
				"email":           bson.M{"bsonType": "string", "minLength": 3},
				"organization_id": bson.M{"bsonType": "objectId"},
				"user_id":         bson.M{"bsonType": "objectId"},
				"code_hash":       bson.M{"bsonType": "string", "minLength": 1},
				"expires_at":      bson.M{"bsonType": "date"},
				"attempts":        bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
			},
		},
	}
}
