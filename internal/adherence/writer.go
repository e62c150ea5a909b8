package adherence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/gmsas95/medtrack/internal/errors"
	"github.com/gmsas95/medtrack/internal/medication"
	"github.com/gmsas95/medtrack/internal/metrics"
)

// RecordRequest is the body of a mark-taken / mark-missed action.
type RecordRequest struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Status string `json:"status"`
}

// Writer is the only write path into the ledger.
type Writer struct {
	schedules ScheduleReader
	ledger    LedgerStore
	logger    *zap.Logger
	now       func() time.Time
}

func NewWriter(schedules ScheduleReader, ledger LedgerStore, logger *zap.Logger) *Writer {
	return &Writer{
		schedules: schedules,
		ledger:    ledger,
		logger:    logger.Named("ledger"),
		now:       time.Now,
	}
}

// RecordStatus upserts the record for (user, medicine, date, time). Repeated
// calls update the existing record; concurrent inserts for the same key are
// resolved by the store's unique index and retried as an update.
func (w *Writer) RecordStatus(ctx context.Context, userID, medicineID string, req RecordRequest) (*Record, error) {
	status, err := ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	date, err := medication.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	tod, err := medication.NormalizeTime(req.Time)
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}

	sched, err := w.schedules.GetSchedule(ctx, userID, medicineID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if sched == nil {
		return nil, apperrors.NotFound("medicine")
	}
	if _, ok := medication.OccurrenceAt(sched, date, tod); !ok {
		return nil, apperrors.Validation("no dose of %s is scheduled at %s on %s", sched.MedicineName, tod, date)
	}

	key := Key{UserID: userID, MedicineID: medicineID, Date: date, Time: tod}
	rec, err := w.upsert(ctx, key, status)
	if err != nil {
		metrics.LedgerWrite("error")
		return nil, err
	}

	w.logger.Info("Dose status recorded",
		zap.String("user_id", userID),
		zap.String("medicine_id", medicineID),
		zap.String("date", date.String()),
		zap.String("time", tod.String()),
		zap.String("status", string(status)),
	)
	return rec, nil
}

func (w *Writer) upsert(ctx context.Context, key Key, status Status) (*Record, error) {
	now := w.now()

	existing, err := w.ledger.FindRecord(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}
	if existing != nil {
		return w.update(ctx, key, status, now, "updated")
	}

	rec := &Record{
		ID:            uuid.New().String(),
		UserID:        key.UserID,
		MedicineID:    key.MedicineID,
		ScheduledDate: key.Date,
		ScheduledTime: key.Time,
		Status:        status,
		RecordedAt:    now,
	}
	err = w.ledger.InsertRecord(ctx, rec)
	switch {
	case err == nil:
		metrics.LedgerWrite("inserted")
		return rec, nil
	case apperrors.IsConflict(err):
		// Lost the insert race to another writer for the same occurrence.
		w.logger.Debug("Ledger insert conflicted, updating instead",
			zap.String("medicine_id", key.MedicineID),
			zap.String("date", key.Date.String()),
			zap.String("time", key.Time.String()),
		)
		return w.update(ctx, key, status, now, "conflict_updated")
	default:
		return nil, fmt.Errorf("insert record: %w", err)
	}
}

func (w *Writer) update(ctx context.Context, key Key, status Status, at time.Time, outcome string) (*Record, error) {
	rec, err := w.ledger.UpdateRecordStatus(ctx, key, status, at)
	if err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	if rec == nil {
		// The schedule was deleted between the lookup and the write.
		return nil, apperrors.NotFound("medicine")
	}
	metrics.LedgerWrite(outcome)
	return rec, nil
}
