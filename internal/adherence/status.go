package adherence

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gmsas95/medtrack/internal/clock"
	"github.com/gmsas95/medtrack/internal/medication"
)

// DoseStatus is one occurrence on a day joined with its ledger record.
type DoseStatus struct {
	MedicineID string               `json:"medicine_id"`
	Medicine   string               `json:"medicine"`
	Dosage     string               `json:"dosage"`
	Time       medication.TimeOfDay `json:"time"`
	Status     Status               `json:"status"`
	RecordedAt *time.Time           `json:"recorded_at,omitempty"`
	// Due is true once the occurrence's minute has arrived in the reference zone.
	Due bool `json:"due"`
}

type recordKey struct {
	medicineID string
	time       medication.TimeOfDay
}

// StatusJoin answers "what is scheduled on this date and where does it stand".
type StatusJoin struct {
	schedules ScheduleReader
	ledger    LedgerStore
	clock     clock.Clock
	loc       *time.Location
}

func NewStatusJoin(schedules ScheduleReader, ledger LedgerStore, clk clock.Clock, loc *time.Location) *StatusJoin {
	if loc == nil {
		loc = time.UTC
	}
	return &StatusJoin{schedules: schedules, ledger: ledger, clock: clk, loc: loc}
}

// Today returns the current calendar date in the reference zone.
func (j *StatusJoin) Today() medication.Date {
	return medication.DateOf(j.clock.Now().In(j.loc))
}

// DoseStatusesFor expands every schedule of userID on date and marks each
// occurrence taken, missed or pending. Only records for that one date are read.
func (j *StatusJoin) DoseStatusesFor(ctx context.Context, userID string, date medication.Date) ([]DoseStatus, error) {
	scheds, err := j.schedules.ListSchedules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	records, err := j.ledger.ListRecordsByDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	byKey := make(map[recordKey]*Record, len(records))
	for i := range records {
		r := &records[i]
		byKey[recordKey{medicineID: r.MedicineID, time: r.ScheduledTime}] = r
	}

	now := j.clock.Now().In(j.loc)
	out := make([]DoseStatus, 0)
	for _, s := range scheds {
		for _, t := range medication.OccurrencesOn(s, date) {
			ds := DoseStatus{
				MedicineID: s.ID,
				Medicine:   s.MedicineName,
				Dosage:     s.Dosage,
				Time:       t,
				Status:     StatusPending,
				Due:        !date.At(t, j.loc).After(now),
			}
			if r, ok := byKey[recordKey{medicineID: s.ID, time: t}]; ok {
				ds.Status = r.Status
				at := r.RecordedAt
				ds.RecordedAt = &at
			}
			out = append(out, ds)
		}
	}

	// Day view: by time of day, then medicine name.
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Time != out[b].Time {
			return out[a].Time < out[b].Time
		}
		return out[a].Medicine < out[b].Medicine
	})
	return out, nil
}
