// internal/app/system/progress/filter.go
package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/dalemusser/waffle/pantry/text"
)

// StatusFilter selects missions by aggregate completion.
type StatusFilter string

const (
	// StatusCompleted keeps missions at least one participant completed.
	StatusCompleted StatusFilter = "completed"
	// StatusIncomplete keeps missions nobody completed, including missions
	// with no participants at all.
	StatusIncomplete StatusFilter = "incomplete"
)

// ParseStatusFilter accepts "", "completed" or "incomplete" (any case).
// The empty string yields nil (no status filter).
func ParseStatusFilter(s string) (*StatusFilter, error) {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return nil, nil
	case StatusCompleted:
		v := StatusCompleted
		return &v, nil
	case StatusIncomplete:
		v := StatusIncomplete
		return &v, nil
	}
	return nil, fmt.Errorf("unknown status %q: %w", s, errs.ErrInvalidInput)
}

// DateRange bounds missions by creation and due date. Either end may be nil.
type DateRange struct {
	// Start keeps missions created at or after Start.
	Start *time.Time
	// End keeps missions due on or before the end of End's calendar day.
	End *time.Time
}

// Filter narrows a list of MissionStat. Nil fields do not filter.
type Filter struct {
	Search    *string
	Status    *StatusFilter
	DateRange *DateRange
}

// EndOfDay returns 23:59:59.999 on t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// Matches reports whether s passes every set criterion.
func (f Filter) Matches(s MissionStat) bool {
	if f.Search != nil {
		if q := text.Fold(strings.TrimSpace(*f.Search)); q != "" && !strings.Contains(text.Fold(s.Title), q) {
			return false
		}
	}
	if f.Status != nil {
		switch *f.Status {
		case StatusCompleted:
			if s.CompletedCount == 0 {
				return false
			}
		case StatusIncomplete:
			if s.CompletedCount != 0 {
				return false
			}
		}
	}
	if f.DateRange != nil {
		if f.DateRange.Start != nil && s.CreatedAt.Before(*f.DateRange.Start) {
			return false
		}
		if f.DateRange.End != nil && s.DueDate.After(EndOfDay(*f.DateRange.End)) {
			return false
		}
	}
	return true
}

// Apply returns the stats that match f, preserving order.
func (f Filter) Apply(stats []MissionStat) []MissionStat {
	out := make([]MissionStat, 0, len(stats))
	for _, s := range stats {
		if f.Matches(s) {
			out = append(out, s)
		}
	}
	return out
}
