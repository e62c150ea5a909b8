package store

import (
	"time"
)

// ScheduleModel is the schedules table. Times are kept as a JSON array and
// mirrored into schedule_slots for lookup by minute.
type ScheduleModel struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	UserID       string    `gorm:"size:128;not null;index" json:"user_id"`
	MedicineName string    `gorm:"not null" json:"medicine_name"`
	Dosage       string    `json:"dosage"`
	TimesJSON    string    `gorm:"type:text;not null" json:"-"`
	StartDate    string    `gorm:"size:10;not null" json:"start_date"`
	EndDate      string    `gorm:"size:10;not null" json:"end_date"`
	Channel      string    `gorm:"size:16;not null" json:"channel"`
	Contact      string    `gorm:"not null" json:"contact"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (ScheduleModel) TableName() string { return "schedules" }

// ScheduleSlot indexes a schedule under one HH:MM minute.
type ScheduleSlot struct {
	ScheduleID string `gorm:"primaryKey;size:36"`
	Slot       string `gorm:"primaryKey;size:5;index:idx_schedule_slots_slot"`
}

func (ScheduleSlot) TableName() string { return "schedule_slots" }

// AdherenceModel is one ledger row. The unique index is what keeps a dose
// occurrence to a single record under concurrent writers.
type AdherenceModel struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	UserID        string    `gorm:"size:128;not null;uniqueIndex:ux_adherence_occurrence,priority:1;index:idx_adherence_user_date,priority:1" json:"user_id"`
	MedicineID    string    `gorm:"size:36;not null;uniqueIndex:ux_adherence_occurrence,priority:2;index:idx_adherence_medicine" json:"medicine_id"`
	ScheduledDate string    `gorm:"size:10;not null;uniqueIndex:ux_adherence_occurrence,priority:3;index:idx_adherence_user_date,priority:2" json:"scheduled_date"`
	ScheduledTime string    `gorm:"size:5;not null;uniqueIndex:ux_adherence_occurrence,priority:4" json:"scheduled_time"`
	Status        string    `gorm:"size:8;not null" json:"status"`
	RecordedAt    time.Time `json:"recorded_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (AdherenceModel) TableName() string { return "adherence_records" }
