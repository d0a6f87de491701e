// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"
)

// Email trims surrounding whitespace and lowercases an address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Emails normalizes every candidate, drops empties, and removes duplicates.
// First-occurrence order is kept so previews list addresses the way the
// operator supplied them.
func Emails(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		e := Email(r)
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// EmailDomain returns the normalized part after the last '@', or "" when
// the address has no domain.
func EmailDomain(email string) string {
	e := Email(email)
	i := strings.LastIndex(e, "@")
	if i < 0 || i == len(e)-1 {
		return ""
	}
	return e[i+1:]
}

// Domain normalizes a bare email domain ("@Acme.org " -> "acme.org").
func Domain(s string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "@")
}

// Name trims a display name and preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases a site role (admin | coach | student).
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// GroupRole uppercases a membership role (ADMIN | MODERATOR | MEMBER).
func GroupRole(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// QueryParam trims a query-string value and preserves case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Code trims an organization join code and preserves case. Verification
// codes are not normalized.
func Code(s string) string {
	return strings.TrimSpace(s)
}
