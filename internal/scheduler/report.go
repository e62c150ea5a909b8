package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gmsas95/medtrack/internal/medication"
)

type OutcomeStatus string

const (
	OutcomeDispatched OutcomeStatus = "dispatched"
	OutcomeSkipped    OutcomeStatus = "skipped"
	OutcomeFailed     OutcomeStatus = "failed"
)

// Outcome is what happened to one matched schedule during a tick.
type Outcome struct {
	ScheduleID string             `json:"schedule_id"`
	UserID     string             `json:"user_id"`
	Channel    medication.Channel `json:"channel"`
	Status     OutcomeStatus      `json:"status"`
	Error      string             `json:"error,omitempty"`
}

func newOutcome(s *medication.Schedule, status OutcomeStatus) Outcome {
	return Outcome{ScheduleID: s.ID, UserID: s.UserID, Channel: s.Channel, Status: status}
}

// TickReport summarizes one tick.
type TickReport struct {
	At         time.Time            `json:"at"`
	Date       medication.Date      `json:"date"`
	Slot       medication.TimeOfDay `json:"slot"`
	Matched    int                  `json:"matched"`
	Dispatched int                  `json:"dispatched"`
	Skipped    int                  `json:"skipped"`
	Failed     int                  `json:"failed"`
	Outcomes   []Outcome            `json:"outcomes"`
}

func newReport(at time.Time, date medication.Date, slot medication.TimeOfDay, outcomes []Outcome) *TickReport {
	r := &TickReport{At: at, Date: date, Slot: slot, Matched: len(outcomes), Outcomes: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case OutcomeDispatched:
			r.Dispatched++
		case OutcomeSkipped:
			r.Skipped++
		case OutcomeFailed:
			r.Failed++
		}
	}
	return r
}

const journalKind = "tick"

// EventLog is an append-only store of opaque payloads, newest read first.
type EventLog interface {
	AppendEvent(kind string, at time.Time, payload []byte, ttl time.Duration) error
	RecentEvents(kind string, limit int) ([][]byte, error)
}

// Journal keeps recent tick reports for inspection.
type Journal struct {
	events EventLog
	ttl    time.Duration
}

func NewJournal(events EventLog, ttl time.Duration) *Journal {
	return &Journal{events: events, ttl: ttl}
}

func (j *Journal) Record(r *TickReport) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode tick report: %w", err)
	}
	return j.events.AppendEvent(journalKind, r.At, payload, j.ttl)
}

// Recent returns up to limit reports, newest first.
func (j *Journal) Recent(limit int) ([]TickReport, error) {
	raw, err := j.events.RecentEvents(journalKind, limit)
	if err != nil {
		return nil, fmt.Errorf("read tick journal: %w", err)
	}

	reports := make([]TickReport, 0, len(raw))
	for _, payload := range raw {
		var r TickReport
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, fmt.Errorf("decode tick report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}
