// internal/app/system/reconcile/reconcile.go
package reconcile

import (
	"fmt"

	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/domain/errs"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminAssertion is the caller's proof that ActorID administers GroupID.
// It is produced by the authorization layer after checking the actor's
// site role or group role; reconciliation only checks that it names the
// group being changed.
type AdminAssertion struct {
	GroupID primitive.ObjectID
	ActorID primitive.ObjectID
}

// CoversGroup reports whether the assertion grants admin rights on id.
func (a AdminAssertion) CoversGroup(id primitive.ObjectID) bool {
	return !a.GroupID.IsZero() && !a.ActorID.IsZero() && a.GroupID == id
}

// Match ties a normalized candidate email to the active user it resolved
// to, either through the user's primary email or an organization email.
type Match struct {
	Email string
	User  models.User
}

// Entry is one resolved user in a Plan. A user reached through several
// candidate emails appears once, with every matching email listed.
type Entry struct {
	UserID        primitive.ObjectID `json:"user_id"`
	FullName      string             `json:"full_name"`
	Email         string             `json:"email"`
	MatchedEmails []string           `json:"matched_emails"`
}

// Plan partitions a candidate list against a group's current members.
// Every normalized candidate is accounted for: it matched at least one
// entry in NewMembers or AlreadyMembers, or it is in Unresolvable.
type Plan struct {
	Candidates     []string `json:"candidates"`
	NewMembers     []Entry  `json:"new_members"`
	AlreadyMembers []Entry  `json:"already_members"`
	Unresolvable   []string `json:"unresolvable"`
}

// NewMemberIDs returns the user ids a commit of this plan would add.
func (p Plan) NewMemberIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(p.NewMembers))
	for _, e := range p.NewMembers {
		ids = append(ids, e.UserID)
	}
	return ids
}

// NormalizeCandidates trims, lowercases, drops empties and dedupes raw.
// It fails with errs.ErrInvalidInput when nothing is left.
func NormalizeCandidates(raw []string) ([]string, error) {
	out := normalize.Emails(raw)
	if len(out) == 0 {
		return nil, fmt.Errorf("no candidate emails: %w", errs.ErrInvalidInput)
	}
	return out, nil
}

// Partition builds a Plan from normalized candidates, the matches found
// for them, and the set of users already in the group. Entries are listed
// in the order their first matching candidate appears. It is pure and
// deterministic for a given input.
func Partition(candidates []string, matches []Match, members map[primitive.ObjectID]bool) Plan {
	byEmail := make(map[string][]models.User, len(matches))
	for _, m := range matches {
		byEmail[m.Email] = append(byEmail[m.Email], m.User)
	}

	plan := Plan{
		Candidates:     candidates,
		NewMembers:     []Entry{},
		AlreadyMembers: []Entry{},
		Unresolvable:   []string{},
	}

	type slot struct {
		already bool
		idx     int
	}
	placed := make(map[primitive.ObjectID]slot)

	for _, email := range candidates {
		users := byEmail[email]
		if len(users) == 0 {
			plan.Unresolvable = append(plan.Unresolvable, email)
			continue
		}
		seenHere := make(map[primitive.ObjectID]bool, len(users))
		for _, u := range users {
			if seenHere[u.ID] {
				continue
			}
			seenHere[u.ID] = true

			if s, ok := placed[u.ID]; ok {
				list := plan.NewMembers
				if s.already {
					list = plan.AlreadyMembers
				}
				list[s.idx].MatchedEmails = append(list[s.idx].MatchedEmails, email)
				continue
			}

			e := Entry{UserID: u.ID, FullName: u.FullName, Email: u.Email, MatchedEmails: []string{email}}
			if members[u.ID] {
				placed[u.ID] = slot{already: true, idx: len(plan.AlreadyMembers)}
				plan.AlreadyMembers = append(plan.AlreadyMembers, e)
			} else {
				placed[u.ID] = slot{idx: len(plan.NewMembers)}
				plan.NewMembers = append(plan.NewMembers, e)
			}
		}
	}
	return plan
}
