// internal/domain/errs/errs.go
//
// Package errs holds the domain error taxonomy shared by stores, queries,
// and services. Packages wrap these with fmt.Errorf("...: %w", errs.ErrX)
// and callers test with errors.Is; features map them to HTTP statuses.
package errs

import "errors"

var (
	// ErrNotFound: missing coach, group, organization, or code.
	ErrNotFound = errors.New("not found")
	// ErrConflict: duplicate membership or already-linked organization.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput: empty or malformed candidate list, missing email column.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMismatch: verification code does not match.
	ErrMismatch = errors.New("code mismatch")
	// ErrExpired: verification code past its deadline.
	ErrExpired = errors.New("expired")
	// ErrUnauthorized: caller lacks the required role.
	ErrUnauthorized = errors.New("unauthorized")
)
