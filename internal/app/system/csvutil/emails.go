// internal/app/system/csvutil/emails.go
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/coachhub/internal/domain/errs"
)

// emailHeaderTerms are matched as case-insensitive substrings of header cells.
var emailHeaderTerms = []string{"email", "이메일"}

// ExtractEmailColumn reads a CSV whose first row is a header, locates the
// first header cell naming an email column, and returns that column's raw
// values in row order. Values are not normalized or deduplicated; short
// rows that do not reach the column are skipped.
//
// Returns an error wrapping errs.ErrInvalidInput when the input is empty,
// malformed, has no email column, or exceeds MaxRows data rows.
func ExtractEmailColumn(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv is empty: %w", errs.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %v: %w", err, errs.ErrInvalidInput)
	}

	col := EmailColumnIndex(header)
	if col < 0 {
		return nil, fmt.Errorf("no email column in header: %w", errs.ErrInvalidInput)
	}

	var out []string
	rows := 0
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %v: %w", rows+2, err, errs.ErrInvalidInput)
		}
		rows++
		if rows > MaxRows {
			return nil, fmt.Errorf("csv has more than %d rows: %w", MaxRows, errs.ErrInvalidInput)
		}
		if col < len(rec) {
			out = append(out, rec[col])
		}
	}
	return out, nil
}

// EmailColumnIndex returns the index of the first header cell that names an
// email column, or -1. A leading UTF-8 BOM on the first cell is ignored.
func EmailColumnIndex(header []string) int {
	for i, cell := range header {
		if i == 0 {
			cell = strings.TrimPrefix(cell, "\ufeff")
		}
		cell = strings.ToLower(strings.TrimSpace(cell))
		for _, term := range emailHeaderTerms {
			if strings.Contains(cell, term) {
				return i
			}
		}
	}
	return -1
}
