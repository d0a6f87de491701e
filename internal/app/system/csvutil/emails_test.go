package csvutil

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/dalemusser/coachhub/internal/domain/errs"
)

func TestExtractEmailColumn(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "second column",
			in:   "Name,Email Address,Phone\nKim,kim@acme.org,1\nLee, LEE@acme.org ,2\n",
			want: []string{"kim@acme.org", "LEE@acme.org "},
		},
		{
			name: "korean header",
			in:   "이름,이메일\n김,kim@acme.org\n",
			want: []string{"kim@acme.org"},
		},
		{
			name: "bom and upper case",
			in:   "\ufeffEMAIL\na@b.c\n\nd@e.f\n",
			want: []string{"a@b.c", "d@e.f"},
		},
		{
			name: "duplicates and blanks kept raw",
			in:   "email,name\na@b.c,A\n,B\nA@B.C,C\n",
			want: []string{"a@b.c", "", "A@B.C"},
		},
		{
			name: "short rows skipped",
			in:   "name,email\nonly-name\nx,x@y.z\n",
			want: []string{"x@y.z"},
		},
		{
			name: "header only",
			in:   "email\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractEmailColumn(strings.NewReader(tt.in))
			if err != nil {
				t.Fatalf("ExtractEmailColumn() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractEmailColumn() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractEmailColumn_InvalidInput(t *testing.T) {
	var big strings.Builder
	big.WriteString("email\n")
	for i := 0; i <= MaxRows; i++ {
		fmt.Fprintf(&big, "u%d@x.org\n", i)
	}

	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"no email column", "name,phone\nKim,1\n"},
		{"too many rows", big.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractEmailColumn(strings.NewReader(tt.in))
			if !errors.Is(err, errs.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestEmailColumnIndex(t *testing.T) {
	tests := []struct {
		header []string
		want   int
	}{
		{[]string{"Name", "E-mail"}, -1},
		{[]string{"Name", "Work Email"}, 1},
		{[]string{"email", "backup email"}, 0},
		{[]string{"학생 이메일 주소"}, 0},
		{nil, -1},
	}
	for _, tt := range tests {
		if got := EmailColumnIndex(tt.header); got != tt.want {
			t.Errorf("EmailColumnIndex(%q) = %d, want %d", tt.header, got, tt.want)
		}
	}
}
