// internal/app/system/progress/progress.go
package progress

import (
	"sort"
	"time"

	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participant is one user's standing on a mission.
type Participant struct {
	UserID      primitive.ObjectID `json:"user_id"`
	IsCompleted bool               `json:"is_completed"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

// MissionStat summarizes the progress rows recorded for one mission.
// A participant is any user with a progress row; CompletedCount counts
// those whose row is checked, so CompletedCount <= TotalParticipants.
type MissionStat struct {
	MissionID         primitive.ObjectID `json:"mission_id"`
	CourseID          primitive.ObjectID `json:"course_id"`
	Title             string             `json:"title"`
	DueDate           time.Time          `json:"due_date"`
	CreatedAt         time.Time          `json:"created_at"`
	TotalParticipants int                `json:"total_participants"`
	CompletedCount    int                `json:"completed_count"`
	Participants      []Participant      `json:"participants"`
}

// AggregateMissionStats builds one MissionStat per mission, in the order
// the missions are given. Rows for missions not in the list are ignored.
// Several rows for the same (user, mission) count once; the user is
// completed if any of them is checked.
func AggregateMissionStats(missions []models.Mission, rows []models.MissionProgress) []MissionStat {
	byMission := make(map[primitive.ObjectID]map[primitive.ObjectID]*Participant, len(missions))
	for _, m := range missions {
		byMission[m.ID] = make(map[primitive.ObjectID]*Participant)
	}

	for _, r := range rows {
		users, ok := byMission[r.MissionID]
		if !ok {
			continue
		}
		p, seen := users[r.UserID]
		if !seen {
			p = &Participant{UserID: r.UserID}
			users[r.UserID] = p
		}
		if r.IsChecked && !p.IsCompleted {
			p.IsCompleted = true
			p.CompletedAt = r.CheckedAt
		}
	}

	out := make([]MissionStat, 0, len(missions))
	for _, m := range missions {
		users := byMission[m.ID]
		stat := MissionStat{
			MissionID:    m.ID,
			CourseID:     m.CourseID,
			Title:        m.Title,
			DueDate:      m.DueDate,
			CreatedAt:    m.CreatedAt,
			Participants: make([]Participant, 0, len(users)),
		}
		for _, p := range users {
			stat.Participants = append(stat.Participants, *p)
			if p.IsCompleted {
				stat.CompletedCount++
			}
		}
		stat.TotalParticipants = len(stat.Participants)
		sort.Slice(stat.Participants, func(i, j int) bool {
			return stat.Participants[i].UserID.Hex() < stat.Participants[j].UserID.Hex()
		})
		out = append(out, stat)
	}
	return out
}

// Status is a user's standing on a single mission.
type Status string

const (
	Completed Status = "completed"
	Pending   Status = "pending"
	Overdue   Status = "overdue"
)

// UserStatus is Completed when row exists and is checked, otherwise Pending.
func UserStatus(row *models.MissionProgress) Status {
	if row != nil && row.IsChecked {
		return Completed
	}
	return Pending
}

// StatusAt refines UserStatus with the due date: a pending mission whose due
// date has passed at now is Overdue. Overdue is derived, never stored.
func StatusAt(row *models.MissionProgress, due, now time.Time) Status {
	s := UserStatus(row)
	if s == Pending && !due.IsZero() && now.After(due) {
		return Overdue
	}
	return s
}
