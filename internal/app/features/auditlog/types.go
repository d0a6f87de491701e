// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/coachhub/internal/app/store/audit"
)

// listItem is a single audit event with actor, target and organization
// names resolved.
type listItem struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	RequestID  string            `json:"request_id,omitempty"`
	Category   string            `json:"category"`
	EventType  string            `json:"event_type"`
	ActorName  string            `json:"actor,omitempty"`
	TargetName string            `json:"user,omitempty"`
	OrgName    string            `json:"organization,omitempty"`
	GroupID    string            `json:"group_id,omitempty"`
	IP         string            `json:"ip,omitempty"`
	Success    bool              `json:"success"`
	Reason     string            `json:"failure_reason,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// listResponse is one page of the audit log.
type listResponse struct {
	Items      []listItem `json:"items"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	HasPrev    bool       `json:"has_prev"`
	HasNext    bool       `json:"has_next"`
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventVerificationCodeSent,
		audit.EventVerificationCodeFailed,
		audit.EventVerificationCodeVerified,
		audit.EventOrgJoinedByCode,
	}

	adminEvents := []string{
		audit.EventMembersInvited,
		audit.EventOrgCreated,
		audit.EventOrgUpdated,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		return all
	default:
		return nil
	}
}

func knownEventType(category, eventType string) bool {
	for _, e := range eventTypesForCategory(category) {
		if e == eventType {
			return true
		}
	}
	return false
}
