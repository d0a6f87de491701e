package reconcile

import (
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func user(name, email string) models.User {
	return models.User{ID: primitive.NewObjectID(), FullName: name, Email: email}
}

func emails(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Email)
	}
	return out
}

func TestNormalizeCandidates(t *testing.T) {
	got, err := NormalizeCandidates([]string{" a@x.com", "A@X.COM", "", "b@x.com ", "  "})
	if err != nil {
		t.Fatalf("NormalizeCandidates error = %v", err)
	}
	want := []string{"a@x.com", "b@x.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}

	for _, raw := range [][]string{nil, {}, {" ", ""}} {
		if _, err := NormalizeCandidates(raw); !errors.Is(err, errs.ErrInvalidInput) {
			t.Errorf("NormalizeCandidates(%q): expected ErrInvalidInput, got %v", raw, err)
		}
	}
}

func TestPartition_Scenario(t *testing.T) {
	a := user("A", "a@x.com")
	candidates, err := NormalizeCandidates([]string{"a@x.com", "A@X.COM", "b@x.com"})
	if err != nil {
		t.Fatalf("NormalizeCandidates error = %v", err)
	}

	plan := Partition(candidates, []Match{{Email: "a@x.com", User: a}}, map[primitive.ObjectID]bool{a.ID: true})

	if got := emails(plan.AlreadyMembers); !reflect.DeepEqual(got, []string{"a@x.com"}) {
		t.Errorf("AlreadyMembers: got %q", got)
	}
	if len(plan.NewMembers) != 0 {
		t.Errorf("NewMembers: got %v, want none", plan.NewMembers)
	}
	if !reflect.DeepEqual(plan.Unresolvable, []string{"b@x.com"}) {
		t.Errorf("Unresolvable: got %q", plan.Unresolvable)
	}
}

func TestPartition_UserMatchedTwiceAppearsOnce(t *testing.T) {
	kim := user("Kim", "kim@gmail.com")
	candidates := []string{"kim@gmail.com", "kim@acme.org", "lee@acme.org"}
	matches := []Match{
		{Email: "kim@gmail.com", User: kim},
		{Email: "kim@acme.org", User: kim},
	}

	plan := Partition(candidates, matches, nil)

	if len(plan.NewMembers) != 1 {
		t.Fatalf("NewMembers: got %d, want 1", len(plan.NewMembers))
	}
	want := []string{"kim@gmail.com", "kim@acme.org"}
	if !reflect.DeepEqual(plan.NewMembers[0].MatchedEmails, want) {
		t.Errorf("MatchedEmails: got %q, want %q", plan.NewMembers[0].MatchedEmails, want)
	}
	if !reflect.DeepEqual(plan.Unresolvable, []string{"lee@acme.org"}) {
		t.Errorf("Unresolvable: got %q", plan.Unresolvable)
	}
	if ids := plan.NewMemberIDs(); len(ids) != 1 || ids[0] != kim.ID {
		t.Errorf("NewMemberIDs: got %v", ids)
	}
}

func TestPartition_DuplicateMatchesForSameEmail(t *testing.T) {
	u := user("U", "u@x.com")
	plan := Partition([]string{"u@x.com"}, []Match{{Email: "u@x.com", User: u}, {Email: "u@x.com", User: u}}, nil)
	if len(plan.NewMembers) != 1 || len(plan.NewMembers[0].MatchedEmails) != 1 {
		t.Errorf("got %+v", plan.NewMembers)
	}
}

func TestPartition_CoversEveryCandidate(t *testing.T) {
	a := user("A", "a@x.com")
	b := user("B", "b@x.com")
	c := user("C", "c@x.com")
	candidates := []string{"a@x.com", "b@x.com", "c-org@x.com", "nobody@x.com", "bad-address"}
	matches := []Match{
		{Email: "a@x.com", User: a},
		{Email: "b@x.com", User: b},
		{Email: "c-org@x.com", User: c},
	}
	members := map[primitive.ObjectID]bool{b.ID: true}

	plan := Partition(candidates, matches, members)

	var covered []string
	for _, e := range append(append([]Entry{}, plan.NewMembers...), plan.AlreadyMembers...) {
		covered = append(covered, e.MatchedEmails...)
	}
	covered = append(covered, plan.Unresolvable...)
	sort.Strings(covered)

	want := append([]string{}, candidates...)
	sort.Strings(want)
	if !reflect.DeepEqual(covered, want) {
		t.Errorf("union: got %q, want %q", covered, want)
	}

	if got := emails(plan.NewMembers); !reflect.DeepEqual(got, []string{"a@x.com", "c@x.com"}) {
		t.Errorf("NewMembers: got %q", got)
	}
	if got := emails(plan.AlreadyMembers); !reflect.DeepEqual(got, []string{"b@x.com"}) {
		t.Errorf("AlreadyMembers: got %q", got)
	}
}

func TestPartition_Deterministic(t *testing.T) {
	a := user("A", "a@x.com")
	candidates := []string{"a@x.com", "z@x.com"}
	matches := []Match{{Email: "a@x.com", User: a}}

	first := Partition(candidates, matches, nil)
	second := Partition(candidates, matches, nil)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical plans, got %+v and %+v", first, second)
	}
}

func TestAdminAssertion_CoversGroup(t *testing.T) {
	g := primitive.NewObjectID()
	actor := primitive.NewObjectID()

	tests := []struct {
		name string
		a    AdminAssertion
		want bool
	}{
		{"matching group", AdminAssertion{GroupID: g, ActorID: actor}, true},
		{"other group", AdminAssertion{GroupID: primitive.NewObjectID(), ActorID: actor}, false},
		{"zero value", AdminAssertion{}, false},
		{"missing actor", AdminAssertion{GroupID: g}, false},
	}
	for _, tt := range tests {
		if got := tt.a.CoversGroup(g); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}
