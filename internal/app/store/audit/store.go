// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventVerificationCodeSent     = "verification_code_sent"
	EventVerificationCodeFailed   = "verification_code_failed"
	EventVerificationCodeVerified = "verification_code_verified"
	EventOrgJoinedByCode          = "org_joined_by_code"
)

// Admin event types
const (
	EventMembersInvited = "members_invited"
	EventOrgCreated     = "org_created"
	EventOrgUpdated     = "org_updated"
)

// Event represents an audit event.
type Event struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty"`
	Timestamp      time.Time           `bson:"timestamp"`
	RequestID      string              `bson:"request_id,omitempty"`
	OrganizationID *primitive.ObjectID `bson:"organization_id,omitempty"`
	GroupID        *primitive.ObjectID `bson:"group_id,omitempty"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	UserID  *primitive.ObjectID `bson:"user_id,omitempty"`  // affected user
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty"` // who performed the action

	IP        string `bson:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	OrganizationID *primitive.ObjectID
	UserID         *primitive.ObjectID
	Category       string
	EventType      string
	StartTime      *time.Time
	EndTime        *time.Time
	Limit          int64
	Offset         int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query retrieves audit events matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filter.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.query())
}

func (f QueryFilter) query() bson.M {
	q := bson.M{}
	if f.OrganizationID != nil {
		q["organization_id"] = *f.OrganizationID
	}
	if f.UserID != nil {
		q["user_id"] = *f.UserID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		ts := bson.M{}
		if f.StartTime != nil {
			ts["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			ts["$lte"] = *f.EndTime
		}
		q["timestamp"] = ts
	}
	return q
}
