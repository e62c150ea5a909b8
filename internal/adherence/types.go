// Package adherence holds the dose ledger: the idempotent status writer, the
// per-day status join and range analytics.
package adherence

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/gmsas95/medtrack/internal/errors"
	"github.com/gmsas95/medtrack/internal/medication"
)

type Status string

const (
	StatusTaken   Status = "taken"
	StatusMissed  Status = "missed"
	StatusPending Status = "pending" // derived only, never stored
)

// ParseStatus accepts the two recordable statuses.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusTaken, StatusMissed:
		return st, nil
	}
	return "", apperrors.Validation("status must be %q or %q, got %q", StatusTaken, StatusMissed, s)
}

// Key identifies one dose occurrence in the ledger. The store enforces that at
// most one record exists per key.
type Key struct {
	UserID     string
	MedicineID string
	Date       medication.Date
	Time       medication.TimeOfDay
}

// Record is the persisted outcome of one dose occurrence.
type Record struct {
	ID            string               `json:"id"`
	UserID        string               `json:"user_id"`
	MedicineID    string               `json:"medicine_id"`
	ScheduledDate medication.Date      `json:"scheduled_date"`
	ScheduledTime medication.TimeOfDay `json:"scheduled_time"`
	Status        Status               `json:"status"`
	RecordedAt    time.Time            `json:"recorded_at"`
}

func (r *Record) Key() Key {
	return Key{
		UserID:     r.UserID,
		MedicineID: r.MedicineID,
		Date:       r.ScheduledDate,
		Time:       r.ScheduledTime,
	}
}

// LedgerStore persists adherence records.
type LedgerStore interface {
	// FindRecord returns (nil, nil) when no record exists for key.
	FindRecord(ctx context.Context, key Key) (*Record, error)
	// InsertRecord returns an error matching apperrors.IsConflict when the key
	// already exists.
	InsertRecord(ctx context.Context, r *Record) error
	// UpdateRecordStatus returns (nil, nil) when no record exists for key.
	UpdateRecordStatus(ctx context.Context, key Key, status Status, at time.Time) (*Record, error)
	ListRecordsByDate(ctx context.Context, userID string, date medication.Date) ([]Record, error)
	ListRecordsInRange(ctx context.Context, userID string, start, end medication.Date) ([]Record, error)
}

// ScheduleReader is the read side of the schedule store. GetSchedule returns
// (nil, nil) for schedules the user does not own.
type ScheduleReader interface {
	GetSchedule(ctx context.Context, userID, id string) (*medication.Schedule, error)
	ListSchedules(ctx context.Context, userID string) ([]*medication.Schedule, error)
}
