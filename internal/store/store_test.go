package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmsas95/medtrack/internal/adherence"
	"github.com/gmsas95/medtrack/internal/config"
	apperrors "github.com/gmsas95/medtrack/internal/errors"
	"github.com/gmsas95/medtrack/internal/medication"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(&config.StorageConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testSchedule(id, userID string, times ...string) *medication.Schedule {
	ts, _ := medication.NormalizeTimes(times)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &medication.Schedule{
		ID:           id,
		UserID:       userID,
		MedicineName: "Aspirin " + id,
		Dosage:       "75mg",
		Times:        ts,
		StartDate:    medication.NewDate(2025, time.January, 1),
		EndDate:      medication.NewDate(2025, time.January, 31),
		Channel:      medication.ChannelEmail,
		Contact:      "p@example.com",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestScheduleRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	want := testSchedule("s1", "u1", "20:00", "08:00")
	require.NoError(t, s.CreateSchedule(ctx, want))

	got, err := s.GetSchedule(ctx, "u1", "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"20:00", "08:00"}, got.TimeStrings())
	assert.Equal(t, want.StartDate, got.StartDate)
	assert.Equal(t, want.EndDate, got.EndDate)
	assert.Equal(t, medication.ChannelEmail, got.Channel)

	other, err := s.GetSchedule(ctx, "u2", "s1")
	require.NoError(t, err)
	assert.Nil(t, other, "not visible to another user")
}

func TestListBySlot(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSchedule(ctx, testSchedule("a", "u1", "09:00", "21:00")))
	require.NoError(t, s.CreateSchedule(ctx, testSchedule("b", "u2", "09:00")))
	require.NoError(t, s.CreateSchedule(ctx, testSchedule("c", "u1", "10:00")))

	nine, _ := medication.ParseTimeOfDay("09:00")
	matches, err := s.ListBySlot(ctx, nine)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	ids := []string{matches[0].ID, matches[1].ID}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	// Moving "c" to 09:00 replaces its slot rows.
	c := testSchedule("c", "u1", "09:00")
	require.NoError(t, s.UpdateSchedule(ctx, c))

	matches, err = s.ListBySlot(ctx, nine)
	require.NoError(t, err)
	assert.Len(t, matches, 3)

	ten, _ := medication.ParseTimeOfDay("10:00")
	matches, err = s.ListBySlot(ctx, ten)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestUpdateScheduleScopedToOwner(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSchedule(ctx, testSchedule("a", "u1", "09:00")))

	stolen := testSchedule("a", "u2", "10:00")
	assert.Error(t, s.UpdateSchedule(ctx, stolen))

	got, err := s.GetSchedule(ctx, "u1", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, got.TimeStrings())
}

func testRecord(id, medicineID, date, tod string, status adherence.Status) *adherence.Record {
	d, _ := medication.ParseDate(date)
	t, _ := medication.ParseTimeOfDay(tod)
	return &adherence.Record{
		ID:            id,
		UserID:        "u1",
		MedicineID:    medicineID,
		ScheduledDate: d,
		ScheduledTime: t,
		Status:        status,
		RecordedAt:    time.Date(2025, 1, 15, 9, 5, 0, 0, time.UTC),
	}
}

func TestInsertRecordConflict(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertRecord(ctx, testRecord("r1", "a", "2025-01-15", "09:00", adherence.StatusTaken)))

	err := s.InsertRecord(ctx, testRecord("r2", "a", "2025-01-15", "09:00", adherence.StatusMissed))
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err), "got %v", err)

	// A different minute is a different occurrence.
	require.NoError(t, s.InsertRecord(ctx, testRecord("r3", "a", "2025-01-15", "21:00", adherence.StatusMissed)))
}

func TestUpdateRecordStatus(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rec := testRecord("r1", "a", "2025-01-15", "09:00", adherence.StatusTaken)
	require.NoError(t, s.InsertRecord(ctx, rec))

	at := time.Date(2025, 1, 15, 22, 0, 0, 0, time.UTC)
	updated, err := s.UpdateRecordStatus(ctx, rec.Key(), adherence.StatusMissed, at)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "r1", updated.ID)
	assert.Equal(t, adherence.StatusMissed, updated.Status)
	assert.True(t, at.Equal(updated.RecordedAt))

	missingKey := rec.Key()
	missingKey.MedicineID = "zzz"
	none, err := s.UpdateRecordStatus(ctx, missingKey, adherence.StatusTaken, at)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestListRecords(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertRecord(ctx, testRecord("r1", "a", "2025-01-14", "09:00", adherence.StatusTaken)))
	require.NoError(t, s.InsertRecord(ctx, testRecord("r2", "a", "2025-01-15", "21:00", adherence.StatusMissed)))
	require.NoError(t, s.InsertRecord(ctx, testRecord("r3", "a", "2025-01-15", "09:00", adherence.StatusTaken)))
	require.NoError(t, s.InsertRecord(ctx, testRecord("r4", "a", "2025-02-01", "09:00", adherence.StatusTaken)))

	day, err := s.ListRecordsByDate(ctx, "u1", medication.NewDate(2025, time.January, 15))
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "r3", day[0].ID, "ordered by time")

	rng, err := s.ListRecordsInRange(ctx, "u1", medication.NewDate(2025, time.January, 14), medication.NewDate(2025, time.January, 31))
	require.NoError(t, err)
	assert.Len(t, rng, 3)

	none, err := s.ListRecordsInRange(ctx, "u2", medication.NewDate(2025, time.January, 1), medication.NewDate(2025, time.December, 31))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteScheduleCascades(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSchedule(ctx, testSchedule("a", "u1", "09:00")))
	require.NoError(t, s.CreateSchedule(ctx, testSchedule("b", "u1", "09:00")))
	require.NoError(t, s.InsertRecord(ctx, testRecord("r1", "a", "2025-01-15", "09:00", adherence.StatusTaken)))
	require.NoError(t, s.InsertRecord(ctx, testRecord("r2", "b", "2025-01-15", "09:00", adherence.StatusTaken)))

	found, err := s.DeleteSchedule(ctx, "u2", "a")
	require.NoError(t, err)
	assert.False(t, found, "other users cannot delete")

	found, err = s.DeleteSchedule(ctx, "u1", "a")
	require.NoError(t, err)
	assert.True(t, found)

	recs, err := s.ListRecordsByDate(ctx, "u1", medication.NewDate(2025, time.January, 15))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "b", recs[0].MedicineID)

	nine, _ := medication.ParseTimeOfDay("09:00")
	matches, err := s.ListBySlot(ctx, nine)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b", matches[0].ID)
}

func TestEventsNewestFirst(t *testing.T) {
	s := setupTestStore(t)
	base := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendEvent("tick", base, []byte("first"), time.Hour))
	require.NoError(t, s.AppendEvent("tick", base.Add(time.Minute), []byte("second"), time.Hour))
	require.NoError(t, s.AppendEvent("tick", base.Add(2*time.Minute), []byte("third"), 0))
	require.NoError(t, s.AppendEvent("other", base.Add(3*time.Minute), []byte("noise"), 0))

	got, err := s.RecentEvents("tick", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "third", string(got[0]))
	assert.Equal(t, "second", string(got[1]))

	all, err := s.RecentEvents("tick", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
