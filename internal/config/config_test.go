package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gmsas95/medtrack/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, filepath.Join(dir, "medtrack.db"), cfg.Storage.SQLitePath)
	assert.Equal(t, "* * * * *", cfg.Scheduler.Spec)
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
	assert.Equal(t, 10*time.Second, cfg.SendTimeout())
	assert.Equal(t, "telegram", cfg.Notify.ChatBackend)
	assert.NotEmpty(t, cfg.Auth.JWTSecret, "secret generated when unset")
	assert.True(t, cfg.Auth.SecretGenerated)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	yamlCfg := `
server:
  port: 9090
scheduler:
  timezone: UTC
  max_concurrent: 0
notify:
  chat_backend: discord
`
	require.NoError(t, os.WriteFile(path, []byte(yamlCfg), 0644))

	t.Setenv("MEDTRACK_SERVER_PORT", "7070")
	t.Setenv("JWT_SECRET", "from-alias")

	cfg, err := Load(path, dir)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port, "env beats file")
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, 1, cfg.Scheduler.MaxConcurrent, "clamped to at least one")
	assert.Equal(t, "discord", cfg.Notify.ChatBackend)
	assert.Equal(t, "from-alias", cfg.Auth.JWTSecret)
	assert.False(t, cfg.Auth.SecretGenerated)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown driver", "storage:\n  driver: mongo\n"},
		{"postgres without dsn", "storage:\n  driver: postgres\n"},
		{"bad timezone", "scheduler:\n  timezone: Mars/Olympus\n"},
		{"bad chat backend", "notify:\n  chat_backend: pager\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "medtrack.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := Load(path, dir)
			require.Error(t, err)
			assert.True(t, apperrors.IsConfigInvalid(err))
		})
	}
}

func TestWriteDefaultThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf", "medtrack.yaml")

	require.NoError(t, WriteDefault(path, dir))
	assert.Error(t, WriteDefault(path, dir), "refuses to overwrite")

	cfg, err := Load(path, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "journal"), cfg.Storage.BadgerPath)
	assert.Equal(t, 5, cfg.Notify.BreakerFailures)
}
