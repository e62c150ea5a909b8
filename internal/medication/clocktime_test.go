package medication

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"09:00", "09:00"},
		{"9:0", "09:00"},
		{"9:05", "09:05"},
		{" 20:30 ", "20:30"},
		{"0:0", "00:00"},
		{"8:30 PM", "20:30"},
		{"12:00 AM", "00:00"},
		{"12:15 pm", "12:15"},
		{"1:00am", "01:00"},
	}

	for _, tt := range tests {
		got, err := NormalizeTime(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.String(), tt.in)
	}
}

func TestNormalizeTimeRejects(t *testing.T) {
	for _, in := range []string{"", "24:00", "12:60", "noon", "13:00 PM", "0:30 AM", "9", "09:00:00"} {
		_, err := NormalizeTime(in)
		assert.Error(t, err, in)
	}
}

func TestParseTimeOfDayIsStrict(t *testing.T) {
	_, err := ParseTimeOfDay("9:00")
	assert.Error(t, err)

	v, err := ParseTimeOfDay("21:45")
	require.NoError(t, err)
	assert.Equal(t, 21, v.Hour())
	assert.Equal(t, 45, v.Minute())
}

func TestNormalizeTimesDedups(t *testing.T) {
	times, err := NormalizeTimes([]string{"20:00", "8:0", "08:00", "20:00"})
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.Equal(t, "20:00", times[0].String())
	assert.Equal(t, "08:00", times[1].String())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-15")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, time.January, 15), d)
	assert.Equal(t, "2025-01-15", d.String())

	for _, bad := range []string{"2025-1-15", "2025-02-30", "15/01/2025", "", "2025-01-15T00:00:00Z"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestDateCompare(t *testing.T) {
	a := NewDate(2024, time.December, 31)
	b := NewDate(2025, time.January, 1)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, b, a.AddDays(1))
	assert.Equal(t, NewDate(2024, time.February, 29), NewDate(2024, time.March, 1).AddDays(-1))
}

func TestDateOfUsesLocation(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 20:00 UTC is already the next day in Kolkata.
	instant := time.Date(2025, 1, 14, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, NewDate(2025, time.January, 14), DateOf(instant))
	assert.Equal(t, NewDate(2025, time.January, 15), DateOf(instant.In(kolkata)))
	assert.Equal(t, "01:30", TimeOfDayOf(instant.In(kolkata)).String())
}

func TestTextEncoding(t *testing.T) {
	type payload struct {
		Date Date      `json:"date"`
		Time TimeOfDay `json:"time"`
	}

	raw, err := json.Marshal(payload{Date: NewDate(2025, time.March, 9), Time: TimeOfDay(8*60 + 5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-03-09","time":"08:05"}`, string(raw))

	var p payload
	assert.Error(t, json.Unmarshal([]byte(`{"date":"2025-3-9","time":"08:05"}`), &p))
}
