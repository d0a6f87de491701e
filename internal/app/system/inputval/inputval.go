// internal/app/system/inputval/inputval.go
//
// Package inputval validates decoded request bodies with struct tags.
package inputval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// v is shared; custom tags are registered in init before first use.
var v = validator.New(validator.WithRequiredStructEnabled())

func init() {
	_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return primitive.IsValidObjectID(fl.Field().String())
	})
}

// Struct validates s using its validate tags. Failures are returned as a
// single ErrInvalidInput naming each offending field.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), errs.ErrInvalidInput)
}

// IsValidEmail reports whether s is a syntactically valid address.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && v.Var(s, "email") == nil
}
