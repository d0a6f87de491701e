package roster

import (
	"fmt"
	"testing"
	"time"

	"github.com/dalemusser/coachhub/internal/app/system/paging"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAssemble_OrderNewestFirstWithIDTieBreak(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	lowID := primitive.NewObjectIDFromTimestamp(t0)
	highID := primitive.NewObjectIDFromTimestamp(t0.Add(time.Hour))

	entries := []Entry{
		{UserID: primitive.NewObjectID(), FullName: "old", CreatedAt: t0.Add(-time.Hour)},
		{UserID: lowID, FullName: "tie-low", CreatedAt: t0},
		{UserID: highID, FullName: "tie-high", CreatedAt: t0},
		{UserID: primitive.NewObjectID(), FullName: "new", CreatedAt: t0.Add(time.Hour)},
	}

	page := Assemble(entries, Filter{Start: 1})

	want := []string{"new", "tie-high", "tie-low", "old"}
	if len(page.Entries) != len(want) {
		t.Fatalf("len: got %d, want %d", len(page.Entries), len(want))
	}
	for i, name := range want {
		if page.Entries[i].FullName != name {
			t.Errorf("[%d]: got %q, want %q", i, page.Entries[i].FullName, name)
		}
	}
	if page.Total != 4 {
		t.Errorf("Total: got %d, want 4", page.Total)
	}
}

func TestAssemble_Search(t *testing.T) {
	entries := []Entry{
		{UserID: primitive.NewObjectID(), FullName: "Kim Min", Email: "kim@example.com"},
		{UserID: primitive.NewObjectID(), FullName: "Lee", Email: "lee@example.com", Phone: "010-5555"},
		{UserID: primitive.NewObjectID(), FullName: "Park", Email: "park@example.com",
			Organizations: []OrgRef{{Name: "Acme Academy"}}},
		{UserID: primitive.NewObjectID(), FullName: "Choi", Email: "choi@example.com",
			Groups: []GroupRef{{Name: "Evening Cohort"}}},
	}

	tests := []struct {
		q    string
		want string
	}{
		{"KIM", "Kim Min"},
		{"lee@", "Lee"},
		{"5555", "Lee"},
		{"acme", "Park"},
		{"evening", "Choi"},
	}

	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			page := Assemble(entries, Filter{Search: tt.q, Start: 1})
			if page.Total != 1 {
				t.Fatalf("Total: got %d, want 1", page.Total)
			}
			if page.Entries[0].FullName != tt.want {
				t.Errorf("got %q, want %q", page.Entries[0].FullName, tt.want)
			}
		})
	}

	if page := Assemble(entries, Filter{Search: "nobody", Start: 1}); page.Total != 0 || len(page.Entries) != 0 {
		t.Errorf("no match: got %+v", page)
	}
}

func TestAssemble_Paging(t *testing.T) {
	base := time.Now()
	n := paging.PageSize + 5
	entries := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, Entry{
			UserID:    primitive.NewObjectID(),
			FullName:  fmt.Sprintf("u%02d", i),
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}

	first := Assemble(entries, Filter{Start: 1})
	if len(first.Entries) != paging.PageSize || first.Total != n {
		t.Fatalf("first page: got %d of %d", len(first.Entries), first.Total)
	}
	if !first.Range.HasNext || first.Range.HasPrev {
		t.Errorf("first page range: %+v", first.Range)
	}

	second := Assemble(entries, Filter{Start: first.Range.NextStart})
	if len(second.Entries) != 5 {
		t.Fatalf("second page: got %d, want 5", len(second.Entries))
	}
	if second.Entries[0].FullName != fmt.Sprintf("u%02d", paging.PageSize) {
		t.Errorf("second page first row: got %q", second.Entries[0].FullName)
	}
	if second.Range.HasNext || !second.Range.HasPrev {
		t.Errorf("second page range: %+v", second.Range)
	}
}

func TestEmptyPage(t *testing.T) {
	p := EmptyPage()
	if p.Entries == nil || len(p.Entries) != 0 || p.Total != 0 {
		t.Errorf("got %+v", p)
	}
}
