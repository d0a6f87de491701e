// internal/app/features/auditlog/list.go
package auditlog

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/store/audit"
	orgstore "github.com/dalemusser/coachhub/internal/app/store/organizations"
	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

// filterFromRequest reads category, event_type, organization_id,
// start_date, end_date and page.
func filterFromRequest(r *http.Request) (audit.QueryFilter, int, error) {
	category := normalize.QueryParam(query.Get(r, "category"))
	eventType := normalize.QueryParam(query.Get(r, "event_type"))

	if eventTypesForCategory(category) == nil {
		return audit.QueryFilter{}, 0, fmt.Errorf("unknown category %q: %w", category, errs.ErrInvalidInput)
	}
	if eventType != "" && !knownEventType(category, eventType) {
		return audit.QueryFilter{}, 0, fmt.Errorf("unknown event type %q: %w", eventType, errs.ErrInvalidInput)
	}

	page := 1
	if p, err := strconv.Atoi(query.Get(r, "page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}

	if v := query.Get(r, "organization_id"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return audit.QueryFilter{}, 0, fmt.Errorf("organization_id: %w", errs.ErrInvalidInput)
		}
		filter.OrganizationID = &id
	}
	if v := query.Get(r, "start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return audit.QueryFilter{}, 0, fmt.Errorf("start_date: %w", errs.ErrInvalidInput)
		}
		filter.StartTime = &t
	}
	if v := query.Get(r, "end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return audit.QueryFilter{}, 0, fmt.Errorf("end_date: %w", errs.ErrInvalidInput)
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}
	return filter, page, nil
}

// ServeList handles GET /audit.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, page, err := filterFromRequest(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, "audit log list", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	auditStore := audit.New(h.DB)
	events, err := auditStore.Query(ctx, filter)
	if err != nil {
		h.ErrLog.WriteError(w, r, "query audit events", err)
		return
	}
	total, err := auditStore.CountByFilter(ctx, filter)
	if err != nil {
		h.ErrLog.WriteError(w, r, "count audit events", err)
		return
	}

	// Collect unique user IDs and org IDs for name resolution
	userIDs := make(map[primitive.ObjectID]struct{})
	orgIDs := make(map[primitive.ObjectID]struct{})
	for _, e := range events {
		if e.ActorID != nil {
			userIDs[*e.ActorID] = struct{}{}
		}
		if e.UserID != nil {
			userIDs[*e.UserID] = struct{}{}
		}
		if e.OrganizationID != nil {
			orgIDs[*e.OrganizationID] = struct{}{}
		}
	}

	userNames := make(map[primitive.ObjectID]string)
	if len(userIDs) > 0 {
		users, err := userstore.New(h.DB).GetByIDs(ctx, keys(userIDs))
		if err != nil {
			h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
		}
		for _, u := range users {
			userNames[u.ID] = u.FullName
		}
	}

	orgNames := make(map[primitive.ObjectID]string)
	if len(orgIDs) > 0 {
		orgs, err := orgstore.New(h.DB).GetByIDs(ctx, keys(orgIDs))
		if err != nil {
			h.Log.Warn("failed to fetch org names for audit log", zap.Error(err))
		}
		for _, o := range orgs {
			orgNames[o.ID] = o.Name
		}
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:        e.ID.Hex(),
			Timestamp: e.Timestamp,
			RequestID: e.RequestID,
			Category:  e.Category,
			EventType: e.EventType,
			IP:        e.IP,
			Success:   e.Success,
			Reason:    e.FailureReason,
			Details:   e.Details,
		}
		item.ActorName = nameOr(userNames, e.ActorID)
		item.TargetName = nameOr(userNames, e.UserID)
		item.OrgName = nameOr(orgNames, e.OrganizationID)
		if e.GroupID != nil {
			item.GroupID = e.GroupID.Hex()
		}
		items = append(items, item)
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	uierrors.WriteJSON(w, http.StatusOK, listResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	})
}

func keys(m map[primitive.ObjectID]struct{}) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

// nameOr resolves id to a display name, falling back to its hex form.
func nameOr(names map[primitive.ObjectID]string, id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	if n, ok := names[*id]; ok {
		return n
	}
	return id.Hex()
}
