// internal/app/store/queries/roster/assemble.go
package roster

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/coachhub/internal/app/system/paging"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Filter narrows and pages a roster.
type Filter struct {
	// Search is a case-insensitive substring matched against the user's
	// name, email, phone, organization names and group names.
	Search string
	// Start is the 1-based index of the first row to return.
	Start int
}

type OrgRef struct {
	ID                primitive.ObjectID `json:"id"`
	Name              string             `json:"name"`
	OrganizationEmail string             `json:"organization_email,omitempty"`
}

type GroupRef struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
	Role string             `json:"role"`
}

type CourseRef struct {
	ID    primitive.ObjectID `json:"id"`
	Title string             `json:"title"`
}

// Entry is one student on a roster. Groups lists only the groups that
// made the student reachable; Courses lists the courses those groups run.
type Entry struct {
	UserID        primitive.ObjectID `json:"user_id"`
	FullName      string             `json:"full_name"`
	Email         string             `json:"email"`
	Phone         string             `json:"phone,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	Organizations []OrgRef           `json:"organizations"`
	Groups        []GroupRef         `json:"groups"`
	Courses       []CourseRef        `json:"courses"`
}

// Page is one page of a roster.
type Page struct {
	Entries []Entry      `json:"entries"`
	Total   int          `json:"total"`
	Range   paging.Range `json:"range"`
}

// EmptyPage is the result for a coach or organization with no groups.
func EmptyPage() Page {
	return Page{Entries: []Entry{}, Range: paging.ComputeRange(1, 0)}
}

// Assemble filters entries by f.Search, orders them newest first (ties
// broken by descending id) and returns the page starting at f.Start.
// Total counts every entry that passed the filter.
func Assemble(entries []Entry, f Filter) Page {
	matched := make([]Entry, 0, len(entries))
	q := text.Fold(strings.TrimSpace(f.Search))
	for _, e := range entries {
		if q == "" || e.matches(q) {
			matched = append(matched, e)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return bytes.Compare(a.UserID[:], b.UserID[:]) > 0
	})

	rows, rng := paging.Paginate(matched, f.Start)
	return Page{Entries: rows, Total: len(matched), Range: rng}
}

func (e Entry) matches(q string) bool {
	fields := []string{e.FullName, e.Email, e.Phone}
	for _, o := range e.Organizations {
		fields = append(fields, o.Name)
	}
	for _, g := range e.Groups {
		fields = append(fields, g.Name)
	}
	for _, f := range fields {
		if f != "" && strings.Contains(text.Fold(f), q) {
			return true
		}
	}
	return false
}
