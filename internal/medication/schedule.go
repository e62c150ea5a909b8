package medication

import (
	"time"
)

// Channel selects how reminders for a schedule are delivered.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelChat  Channel = "chat"
)

func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelChat
}

// Schedule is a recurring medication rule owned by one user.
type Schedule struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	MedicineName string      `json:"medicine_name"`
	Dosage       string      `json:"dosage"`
	Times        []TimeOfDay `json:"times"` // normalized, unique, non-empty
	StartDate    Date        `json:"start_date"`
	EndDate      Date        `json:"end_date"` // inclusive
	Channel      Channel     `json:"channel"`
	Contact      string      `json:"contact"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Covers reports whether d is within the validity range.
func (s *Schedule) Covers(d Date) bool {
	return !d.Before(s.StartDate) && !d.After(s.EndDate)
}

func (s *Schedule) HasTime(t TimeOfDay) bool {
	for _, st := range s.Times {
		if st == t {
			return true
		}
	}
	return false
}

// TimeStrings returns Times in HH:MM form.
func (s *Schedule) TimeStrings() []string {
	out := make([]string, len(s.Times))
	for i, t := range s.Times {
		out[i] = t.String()
	}
	return out
}

// Occurrence is one concrete dose derived from a schedule. It is never stored.
type Occurrence struct {
	ScheduleID string    `json:"schedule_id"`
	Date       Date      `json:"date"`
	Time       TimeOfDay `json:"time"`
}

// OccurrencesOn returns the times in force on d: all of them inside the
// validity range, none outside it.
func OccurrencesOn(s *Schedule, d Date) []TimeOfDay {
	if s == nil || !s.Covers(d) {
		return []TimeOfDay{}
	}
	out := make([]TimeOfDay, len(s.Times))
	copy(out, s.Times)
	return out
}

// OccurrenceAt returns the occurrence of s at day d and minute t, if one exists.
func OccurrenceAt(s *Schedule, d Date, t TimeOfDay) (Occurrence, bool) {
	for _, ot := range OccurrencesOn(s, d) {
		if ot == t {
			return Occurrence{ScheduleID: s.ID, Date: d, Time: t}, true
		}
	}
	return Occurrence{}, false
}
