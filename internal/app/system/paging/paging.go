// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows shown in paged lists.
const PageSize = 50

// ParseStart extracts the human-friendly "start" query parameter (1-based index).
// Returns 1 if not present or invalid.
func ParseStart(r *http.Request) int {
	s := query.Get(r, "start")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Range holds computed display range values for a paginated list.
type Range struct {
	Start     int  `json:"start"`      // 1-based start index (0 if no results)
	End       int  `json:"end"`        // 1-based end index (0 if no results)
	PrevStart int  `json:"prev_start"` // start value for previous page link
	NextStart int  `json:"next_start"` // start value for next page link
	HasPrev   bool `json:"has_prev"`
	HasNext   bool `json:"has_next"`
}

// ComputeRange calculates display range values given the current start index
// and number of items shown. HasPrev/HasNext are left for Paginate to set,
// since they depend on the total.
func ComputeRange(start, shown int) Range {
	if shown == 0 {
		return Range{Start: 0, End: 0, PrevStart: 1, NextStart: 1}
	}

	prevStart := start - PageSize
	if prevStart < 1 {
		prevStart = 1
	}

	return Range{
		Start:     start,
		End:       start + shown - 1,
		PrevStart: prevStart,
		NextStart: start + shown,
	}
}

// Paginate returns the page of rows beginning at the 1-based start index,
// plus the display range. A start past the end yields an empty page.
func Paginate[T any](rows []T, start int) ([]T, Range) {
	if start < 1 {
		start = 1
	}
	lo := start - 1
	if lo >= len(rows) {
		r := ComputeRange(start, 0)
		r.HasPrev = start > 1
		return []T{}, r
	}
	hi := lo + PageSize
	if hi > len(rows) {
		hi = len(rows)
	}
	page := rows[lo:hi]
	r := ComputeRange(start, len(page))
	r.HasPrev = start > 1
	r.HasNext = hi < len(rows)
	return page, r
}
