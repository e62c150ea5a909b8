package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gmsas95/medtrack/internal/medication"
)

func toScheduleModel(s *medication.Schedule) (*ScheduleModel, error) {
	timesJSON, err := json.Marshal(s.TimeStrings())
	if err != nil {
		return nil, err
	}
	return &ScheduleModel{
		ID:           s.ID,
		UserID:       s.UserID,
		MedicineName: s.MedicineName,
		Dosage:       s.Dosage,
		TimesJSON:    string(timesJSON),
		StartDate:    s.StartDate.String(),
		EndDate:      s.EndDate.String(),
		Channel:      string(s.Channel),
		Contact:      s.Contact,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}, nil
}

func (m *ScheduleModel) toSchedule() (*medication.Schedule, error) {
	var raw []string
	if err := json.Unmarshal([]byte(m.TimesJSON), &raw); err != nil {
		return nil, fmt.Errorf("schedule %s: corrupt times: %w", m.ID, err)
	}
	times := make([]medication.TimeOfDay, 0, len(raw))
	for _, r := range raw {
		t, err := medication.ParseTimeOfDay(r)
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", m.ID, err)
		}
		times = append(times, t)
	}
	start, err := medication.ParseDate(m.StartDate)
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", m.ID, err)
	}
	end, err := medication.ParseDate(m.EndDate)
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", m.ID, err)
	}

	return &medication.Schedule{
		ID:           m.ID,
		UserID:       m.UserID,
		MedicineName: m.MedicineName,
		Dosage:       m.Dosage,
		Times:        times,
		StartDate:    start,
		EndDate:      end,
		Channel:      medication.Channel(m.Channel),
		Contact:      m.Contact,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

func toSchedules(models []ScheduleModel) ([]*medication.Schedule, error) {
	out := make([]*medication.Schedule, 0, len(models))
	for i := range models {
		s, err := models[i].toSchedule()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func slotsFor(s *medication.Schedule) []ScheduleSlot {
	slots := make([]ScheduleSlot, len(s.Times))
	for i, t := range s.Times {
		slots[i] = ScheduleSlot{ScheduleID: s.ID, Slot: t.String()}
	}
	return slots
}

// CreateSchedule inserts the schedule and its slot index rows.
func (s *Store) CreateSchedule(ctx context.Context, sched *medication.Schedule) error {
	model, err := toScheduleModel(sched)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("insert schedule: %w", err)
		}
		if err := tx.Create(slotsFor(sched)).Error; err != nil {
			return fmt.Errorf("insert slots: %w", err)
		}
		return nil
	})
}

// GetSchedule returns nil, nil when the schedule does not exist for userID.
func (s *Store) GetSchedule(ctx context.Context, userID, id string) (*medication.Schedule, error) {
	var model ScheduleModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.toSchedule()
}

func (s *Store) ListSchedules(ctx context.Context, userID string) ([]*medication.Schedule, error) {
	var models []ScheduleModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toSchedules(models)
}

// UpdateSchedule rewrites the schedule row and replaces its slots.
func (s *Store) UpdateSchedule(ctx context.Context, sched *medication.Schedule) error {
	model, err := toScheduleModel(sched)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&ScheduleModel{}).
			Where("id = ? AND user_id = ?", sched.ID, sched.UserID).
			Select("medicine_name", "dosage", "times_json", "start_date", "end_date", "channel", "contact", "updated_at").
			Updates(model)
		if res.Error != nil {
			return fmt.Errorf("update schedule: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("update schedule %s: %w", sched.ID, gorm.ErrRecordNotFound)
		}
		if err := tx.Where("schedule_id = ?", sched.ID).Delete(&ScheduleSlot{}).Error; err != nil {
			return fmt.Errorf("clear slots: %w", err)
		}
		if err := tx.Create(slotsFor(sched)).Error; err != nil {
			return fmt.Errorf("insert slots: %w", err)
		}
		return nil
	})
}

// DeleteSchedule removes the schedule, its slots and every adherence record
// that references it in one transaction. It reports false when the schedule
// does not exist for userID.
func (s *Store) DeleteSchedule(ctx context.Context, userID, id string) (bool, error) {
	found := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&ScheduleModel{})
		if res.Error != nil {
			return fmt.Errorf("delete schedule: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		found = true
		if err := tx.Where("schedule_id = ?", id).Delete(&ScheduleSlot{}).Error; err != nil {
			return fmt.Errorf("delete slots: %w", err)
		}
		if err := tx.Where("user_id = ? AND medicine_id = ?", userID, id).Delete(&AdherenceModel{}).Error; err != nil {
			return fmt.Errorf("delete adherence records: %w", err)
		}
		return nil
	})
	return found, err
}

// ListBySlot returns every schedule whose times include slot, across users.
func (s *Store) ListBySlot(ctx context.Context, slot medication.TimeOfDay) ([]*medication.Schedule, error) {
	var models []ScheduleModel
	err := s.db.WithContext(ctx).
		Joins("JOIN schedule_slots ON schedule_slots.schedule_id = schedules.id").
		Where("schedule_slots.slot = ?", slot.String()).
		Order("schedules.created_at ASC, schedules.id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toSchedules(models)
}
