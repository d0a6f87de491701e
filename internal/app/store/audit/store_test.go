package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/coachhub/internal/app/store/audit"
	"github.com/dalemusser/coachhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventVerificationCodeSent,
		UserID:    &userID,
		IP:        "192.168.1.1",
		Success:   true,
	}

	if err := store.Log(ctx, event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be auto-generated")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestStore_Query_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	orgA := primitive.NewObjectID()
	orgB := primitive.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)

	seed := []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventVerificationCodeSent, OrganizationID: &orgA, Timestamp: base, Success: true},
		{Category: audit.CategoryAuth, EventType: audit.EventVerificationCodeFailed, OrganizationID: &orgA, Timestamp: base.Add(time.Minute)},
		{Category: audit.CategoryAdmin, EventType: audit.EventMembersInvited, OrganizationID: &orgB, Timestamp: base.Add(2 * time.Minute), Success: true},
	}
	for _, e := range seed {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	after := base.Add(30 * time.Second)
	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int64
	}{
		{"all", audit.QueryFilter{}, 3},
		{"by org", audit.QueryFilter{OrganizationID: &orgA}, 2},
		{"by category", audit.QueryFilter{Category: audit.CategoryAdmin}, 1},
		{"by event type", audit.QueryFilter{EventType: audit.EventVerificationCodeFailed}, 1},
		{"by start time", audit.QueryFilter{StartTime: &after}, 2},
		{"org and start", audit.QueryFilter{OrganizationID: &orgA, StartTime: &after}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := store.CountByFilter(ctx, tt.filter)
			if err != nil {
				t.Fatalf("CountByFilter failed: %v", err)
			}
			if n != tt.want {
				t.Errorf("count: got %d, want %d", n, tt.want)
			}
			events, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if int64(len(events)) != tt.want {
				t.Errorf("len: got %d, want %d", len(events), tt.want)
			}
		})
	}
}

func TestStore_Query_NewestFirstWithLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 3; i++ {
		e := audit.Event{
			Category:  audit.CategoryAdmin,
			EventType: audit.EventOrgUpdated,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Details:   map[string]string{"seq": string(rune('a' + i))},
		}
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	events, err := store.Query(ctx, audit.QueryFilter{Limit: 2})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len: got %d, want 2", len(events))
	}
	if events[0].Details["seq"] != "c" || events[1].Details["seq"] != "b" {
		t.Errorf("order: got %q, %q, want c, b", events[0].Details["seq"], events[1].Details["seq"])
	}
}
