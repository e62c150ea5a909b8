package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gmsas95/medtrack/internal/clock"
	"github.com/gmsas95/medtrack/internal/config"
	"github.com/gmsas95/medtrack/internal/medication"
	"github.com/gmsas95/medtrack/internal/scheduler"
	"github.com/gmsas95/medtrack/internal/store"
)

func newTestApp(t *testing.T, at time.Time) *App {
	t.Helper()
	cfg := config.Default(t.TempDir())
	st, err := store.New(&cfg.Storage)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return New(cfg, st, zap.NewNop(), clock.NewFixed(at), "test")
}

func TestNew(t *testing.T) {
	app := newTestApp(t, time.Now())

	assert.Equal(t, "test", app.Version)
	assert.NotNil(t, app.Schedules)
	assert.NotNil(t, app.Writer)
	assert.NotNil(t, app.Statuses)
	assert.NotNil(t, app.Analytics)
	assert.NotNil(t, app.Scheduler)
	assert.Equal(t, "Asia/Kolkata", app.Scheduler.Location().String())
}

func TestBuildDispatcherFallsBackToLog(t *testing.T) {
	cfg := config.Default(t.TempDir())

	_, channels := BuildDispatcher(cfg, zap.NewNop())
	require.Len(t, channels, 2)
	assert.Equal(t, "email", channels[0].Name())
	assert.Equal(t, "chat", channels[1].Name())
	assert.Equal(t, "closed", channels[0].State())
}

func TestBuildDispatcherUsesDiscord(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Notify.ChatBackend = "discord"
	cfg.Notify.Discord.Token = "discord-token"

	_, channels := BuildDispatcher(cfg, zap.NewNop())
	assert.Equal(t, "discord", channels[1].Name())
}

func TestTickEndToEnd(t *testing.T) {
	// 09:00 in Kolkata.
	app := newTestApp(t, time.Date(2025, time.January, 15, 3, 30, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := app.Schedules.Create(ctx, "user-1", medication.CreateScheduleRequest{
		MedicineName: "Metformin",
		Dosage:       "500mg",
		Times:        []string{"09:00"},
		StartDate:    "2025-01-01",
		EndDate:      "2025-01-31",
		Contact:      "123456789",
	})
	require.NoError(t, err)

	report, err := app.Scheduler.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Dispatched)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, medication.ChannelChat, report.Outcomes[0].Channel)

	reports, err := app.Journal.Recent(5)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, scheduler.OutcomeDispatched, reports[0].Outcomes[0].Status)
}

func TestApplyConfigChangesLevel(t *testing.T) {
	app := newTestApp(t, time.Now())

	cfg := config.Default(t.TempDir())
	cfg.Log.Level = "debug"
	app.ApplyConfig(cfg)
	assert.Equal(t, zapcore.DebugLevel, app.Level.Level())

	cfg.Log.Level = "loud"
	app.ApplyConfig(cfg)
	assert.Equal(t, zapcore.DebugLevel, app.Level.Level())
}
