package model

import (
	"fmt"
	"time"

	"chimu/internal/common"
)

type JamStatus string

const (
	JamRegistrationOpen   JamStatus = "REGISTRATION_OPEN"
	JamRegistrationClosed JamStatus = "REGISTRATION_CLOSED"
	JamInProgress         JamStatus = "IN_PROGRESS"
	JamJudging            JamStatus = "JUDGING"
	JamCompleted          JamStatus = "COMPLETED"
	JamCancelled          JamStatus = "CANCELLED"
)

type Jam struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	Description       string    `json:"description"`
	OrganizerID       string    `json:"organizer_id"`
	MinTeamSize       int       `json:"min_team_size"`
	MaxTeamSize       int       `json:"max_team_size"`
	RegistrationStart time.Time `json:"registration_start"`
	RegistrationEnd   time.Time `json:"registration_end"`
	JamStart          time.Time `json:"jam_start"`
	JamEnd            time.Time `json:"jam_end"`
	JudgingStart      time.Time `json:"judging_start"`
	JudgingEnd        time.Time `json:"judging_end"`
	Status            JamStatus `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	OrganizerUsername *string          `json:"organizer_username,omitempty"` // For display
	Criteria          []RatingCriteria `json:"criteria,omitempty"`
}

// jamTransition is one edge of the automatic lifecycle: the jam moves From -> To
// once the boundary timestamp has been reached.
type jamTransition struct {
	From     JamStatus
	Boundary func(*Jam) time.Time
	To       JamStatus
}

// jamTransitions is the full automatic transition table. CANCELLED is absent on
// purpose: it is only ever reached by explicit organizer/admin action.
var jamTransitions = []jamTransition{
	{JamRegistrationOpen, func(j *Jam) time.Time { return j.RegistrationEnd }, JamRegistrationClosed},
	{JamRegistrationClosed, func(j *Jam) time.Time { return j.JamStart }, JamInProgress},
	{JamInProgress, func(j *Jam) time.Time { return j.JudgingStart }, JamJudging},
	{JamJudging, func(j *Jam) time.Time { return j.JudgingEnd }, JamCompleted},
}

// NextStatus returns the single next status the jam should move to at the given
// instant, or false if no boundary has been crossed. Callers that may observe a
// late sweep (several boundaries already behind `now`) should use AdvanceStatus.
func (j *Jam) NextStatus(now time.Time) (JamStatus, bool) {
	for _, t := range jamTransitions {
		if j.Status == t.From && !now.Before(t.Boundary(j)) {
			return t.To, true
		}
	}
	return "", false
}

// AdvanceStatus returns, in order, every status the jam passes through when the
// clock reads `now`. An on-time sweep yields at most one element; a late sweep
// can yield several (e.g. straight from REGISTRATION_OPEN through to JUDGING).
func (j *Jam) AdvanceStatus(now time.Time) []JamStatus {
	var path []JamStatus
	cur := *j
	for {
		next, ok := cur.NextStatus(now)
		if !ok {
			return path
		}
		cur.Status = next
		path = append(path, next)
	}
}

// IsTerminal reports whether no further status change, automatic or manual, is
// possible.
func (j *Jam) IsTerminal() bool {
	return j.Status == JamCompleted || j.Status == JamCancelled
}

// ValidTransition reports whether from -> to is an edge of the lifecycle,
// counting cancellation from any non-terminal state. Anything else is rejected
// rather than trusted by convention.
func ValidTransition(from, to JamStatus) bool {
	if to == JamCancelled {
		return from != JamCompleted && from != JamCancelled
	}
	for _, t := range jamTransitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// ActiveJamStatuses are the statuses the lifecycle sweep has to look at.
var ActiveJamStatuses = []JamStatus{
	JamRegistrationOpen,
	JamRegistrationClosed,
	JamInProgress,
	JamJudging,
}

// ValidateSchedule checks the team-size bounds and the ordering of the five
// boundary timestamps. JudgingStart may coincide with JamEnd.
func (j *Jam) ValidateSchedule() error {
	if j.MinTeamSize < 1 {
		return errValidationMsg("min_team_size must be at least 1")
	}
	if j.MaxTeamSize < j.MinTeamSize {
		return errValidationMsg("max_team_size must not be smaller than min_team_size")
	}
	ordered := []struct {
		name string
		a, b time.Time
	}{
		{"registration_start/registration_end", j.RegistrationStart, j.RegistrationEnd},
		{"registration_end/jam_start", j.RegistrationEnd, j.JamStart},
		{"jam_start/jam_end", j.JamStart, j.JamEnd},
		{"jam_end/judging_start", j.JamEnd, j.JudgingStart},
		{"judging_start/judging_end", j.JudgingStart, j.JudgingEnd},
	}
	for _, o := range ordered {
		if o.a.After(o.b) {
			return errValidationMsg("timestamps out of order: " + o.name)
		}
	}
	return nil
}

func errValidationMsg(msg string) error {
	return fmt.Errorf("%s: %w", msg, common.ErrValidation)
}
