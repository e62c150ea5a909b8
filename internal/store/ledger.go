package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gmsas95/medtrack/internal/adherence"
	apperrors "github.com/gmsas95/medtrack/internal/errors"
	"github.com/gmsas95/medtrack/internal/medication"
)

func (m *AdherenceModel) toRecord() (*adherence.Record, error) {
	date, err := medication.ParseDate(m.ScheduledDate)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", m.ID, err)
	}
	tod, err := medication.ParseTimeOfDay(m.ScheduledTime)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", m.ID, err)
	}
	return &adherence.Record{
		ID:            m.ID,
		UserID:        m.UserID,
		MedicineID:    m.MedicineID,
		ScheduledDate: date,
		ScheduledTime: tod,
		Status:        adherence.Status(m.Status),
		RecordedAt:    m.RecordedAt,
	}, nil
}

func toRecords(models []AdherenceModel) ([]adherence.Record, error) {
	out := make([]adherence.Record, 0, len(models))
	for i := range models {
		r, err := models[i].toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

func whereKey(db *gorm.DB, key adherence.Key) *gorm.DB {
	return db.Where("user_id = ? AND medicine_id = ? AND scheduled_date = ? AND scheduled_time = ?",
		key.UserID, key.MedicineID, key.Date.String(), key.Time.String())
}

// FindRecord returns nil, nil when no record exists for key.
func (s *Store) FindRecord(ctx context.Context, key adherence.Key) (*adherence.Record, error) {
	var model AdherenceModel
	err := whereKey(s.db.WithContext(ctx), key).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.toRecord()
}

// InsertRecord creates a ledger row. A duplicate occurrence key is reported
// as a Conflict error.
func (s *Store) InsertRecord(ctx context.Context, r *adherence.Record) error {
	model := &AdherenceModel{
		ID:            r.ID,
		UserID:        r.UserID,
		MedicineID:    r.MedicineID,
		ScheduledDate: r.ScheduledDate.String(),
		ScheduledTime: r.ScheduledTime.String(),
		Status:        string(r.Status),
		RecordedAt:    r.RecordedAt,
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict(err)
		}
		return err
	}
	return nil
}

// UpdateRecordStatus returns nil, nil when no record exists for key.
func (s *Store) UpdateRecordStatus(ctx context.Context, key adherence.Key, status adherence.Status, at time.Time) (*adherence.Record, error) {
	res := whereKey(s.db.WithContext(ctx).Model(&AdherenceModel{}), key).
		Updates(map[string]any{
			"status":      string(status),
			"recorded_at": at,
			"updated_at":  at,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return s.FindRecord(ctx, key)
}

func (s *Store) ListRecordsByDate(ctx context.Context, userID string, date medication.Date) ([]adherence.Record, error) {
	var models []AdherenceModel
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND scheduled_date = ?", userID, date.String()).
		Order("scheduled_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toRecords(models)
}

// ListRecordsInRange returns records with start <= date <= end. Dates are
// stored as YYYY-MM-DD so string order is calendar order.
func (s *Store) ListRecordsInRange(ctx context.Context, userID string, start, end medication.Date) ([]adherence.Record, error) {
	var models []AdherenceModel
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND scheduled_date BETWEEN ? AND ?", userID, start.String(), end.String()).
		Order("scheduled_date ASC, scheduled_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toRecords(models)
}
