// internal/app/features/missions/handler.go
package missions

import (
	"fmt"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/store/queries/missionstats"
	"github.com/dalemusser/coachhub/internal/app/system/authz"
	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/app/system/progress"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DateLayout is the accepted format for start_date and end_date.
const DateLayout = "2006-01-02"

// Handler serves mission progress views.
type Handler struct {
	DB     *mongo.Database
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
	Now    func() time.Time
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{DB: db, ErrLog: errLog, Log: logger, Now: time.Now}
}

type statsResponse struct {
	Missions []progress.MissionStat `json:"missions"`
}

type mineResponse struct {
	Missions []missionstats.UserMission `json:"missions"`
}

// FilterFromRequest reads q, status, start_date and end_date. Dates are
// calendar days in UTC. Malformed values are ErrInvalidInput.
func FilterFromRequest(r *http.Request) (progress.Filter, error) {
	var f progress.Filter

	if q := normalize.QueryParam(query.Get(r, "q")); q != "" {
		f.Search = &q
	}

	status, err := progress.ParseStatusFilter(query.Get(r, "status"))
	if err != nil {
		return progress.Filter{}, err
	}
	f.Status = status

	start, err := parseDate(query.Get(r, "start_date"))
	if err != nil {
		return progress.Filter{}, err
	}
	end, err := parseDate(query.Get(r, "end_date"))
	if err != nil {
		return progress.Filter{}, err
	}
	if start != nil || end != nil {
		f.DateRange = &progress.DateRange{Start: start, End: end}
	}
	return f, nil
}

func parseDate(s string) (*time.Time, error) {
	s = normalize.QueryParam(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("date %q: %w", s, errs.ErrInvalidInput)
	}
	return &t, nil
}

// ServeStats handles GET /missions/stats. Coaches see the missions of the
// courses their groups run. Admins may pass course_id to inspect any course.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.WriteError(w, r, "mission stats", errs.ErrUnauthorized)
		return
	}
	f, err := FilterFromRequest(r)
	if err != nil {
		h.ErrLog.WriteError(w, r, "mission stats", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "mission stats")
	defer cancel()

	var stats []progress.MissionStat
	if hex := normalize.QueryParam(query.Get(r, "course_id")); hex != "" {
		if !authz.IsAdmin(r) {
			h.ErrLog.WriteError(w, r, "mission stats", errs.ErrUnauthorized)
			return
		}
		courseID, perr := primitive.ObjectIDFromHex(hex)
		if perr != nil {
			h.ErrLog.WriteError(w, r, "mission stats", fmt.Errorf("course_id: %w", errs.ErrInvalidInput))
			return
		}
		stats, err = missionstats.ListForCourses(ctx, h.DB, []primitive.ObjectID{courseID}, f)
	} else {
		stats, err = missionstats.ForCoach(ctx, h.DB, userID, f)
	}
	if err != nil {
		h.ErrLog.WriteError(w, r, "mission stats", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, statsResponse{Missions: stats})
}

// ServeMine handles GET /missions/mine.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.WriteError(w, r, "my missions", errs.ErrUnauthorized)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "my missions")
	defer cancel()

	list, err := missionstats.UserMissions(ctx, h.DB, userID, h.Now())
	if err != nil {
		h.ErrLog.WriteError(w, r, "my missions", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, mineResponse{Missions: list})
}
