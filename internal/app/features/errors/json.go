// internal/app/features/errors/json.go
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dalemusser/coachhub/internal/app/system/inputval"
	"github.com/dalemusser/coachhub/internal/app/system/limits"
	"github.com/dalemusser/coachhub/internal/domain/errs"
)

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON reads a JSON body into dst and validates its struct tags.
// Malformed bodies, unknown fields and failed validation are ErrInvalidInput.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %v: %w", err, errs.ErrInvalidInput)
	}
	return inputval.Struct(dst)
}
