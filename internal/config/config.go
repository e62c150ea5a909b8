package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	apperrors "github.com/gmsas95/medtrack/internal/errors"
)

// Config holds all configuration for medtrack
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Auth      AuthConfig      `mapstructure:"auth" yaml:"auth"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Notify    NotifyConfig    `mapstructure:"notify" yaml:"notify"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address      string   `mapstructure:"address" yaml:"address"`
	Port         int      `mapstructure:"port" yaml:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout int      `mapstructure:"write_timeout" yaml:"write_timeout"`
	AllowOrigins []string `mapstructure:"allow_origins" yaml:"allow_origins"`
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours" yaml:"token_ttl_hours"`

	// SecretGenerated is set when no secret was configured and one was made up.
	SecretGenerated bool `mapstructure:"-" yaml:"-"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir" yaml:"data_dir"`
	Driver     string `mapstructure:"driver" yaml:"driver"` // sqlite or postgres
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	DSN        string `mapstructure:"dsn" yaml:"dsn"`
	// BadgerPath empty runs the tick journal in memory.
	BadgerPath string `mapstructure:"badger_path" yaml:"badger_path"`
}

// SchedulerConfig holds tick settings
type SchedulerConfig struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	Spec            string `mapstructure:"spec" yaml:"spec"`
	Timezone        string `mapstructure:"timezone" yaml:"timezone"`
	MaxConcurrent   int    `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	JournalTTLHours int    `mapstructure:"journal_ttl_hours" yaml:"journal_ttl_hours"`
}

// NotifyConfig holds outbound channel settings
type NotifyConfig struct {
	SendTimeout     int            `mapstructure:"send_timeout" yaml:"send_timeout"`
	RatePerSecond   float64        `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	Burst           int            `mapstructure:"burst" yaml:"burst"`
	BreakerFailures int            `mapstructure:"breaker_failures" yaml:"breaker_failures"`
	BreakerTimeout  int            `mapstructure:"breaker_timeout" yaml:"breaker_timeout"`
	ChatBackend     string         `mapstructure:"chat_backend" yaml:"chat_backend"` // telegram or discord
	SMTP            SMTPConfig     `mapstructure:"smtp" yaml:"smtp"`
	Telegram        TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
	Discord         DiscordConfig  `mapstructure:"discord" yaml:"discord"`
}

// SMTPConfig holds email relay settings
type SMTPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	From     string `mapstructure:"from" yaml:"from"`
}

// TelegramConfig holds Telegram bot settings
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token" yaml:"bot_token"`
}

// DiscordConfig holds Discord bot settings
type DiscordConfig struct {
	Token string `mapstructure:"token" yaml:"token"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"` // console or json
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}
	dataDir = expandPath(dataDir)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.SetDefault("storage.data_dir", dataDir)
	v.SetDefault("storage.sqlite_path", filepath.Join(dataDir, "medtrack.db"))
	v.SetDefault("storage.badger_path", filepath.Join(dataDir, "journal"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "medtrack.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (MEDTRACK_SERVER_PORT, MEDTRACK_STORAGE_DSN, etc.)
	v.SetEnvPrefix("MEDTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfig, apperrors.ErrConfigInvalid.Message)
	}

	return &cfg, nil
}

// Default returns the built-in configuration rooted at dataDir.
func Default(dataDir string) *Config {
	v := viper.New()
	setDefaults(v)
	v.Set("storage.data_dir", dataDir)
	v.Set("storage.sqlite_path", filepath.Join(dataDir, "medtrack.db"))
	v.Set("storage.badger_path", filepath.Join(dataDir, "journal"))

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl_hours", 24*7)

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.spec", "* * * * *")
	v.SetDefault("scheduler.timezone", "Asia/Kolkata")
	v.SetDefault("scheduler.max_concurrent", 8)
	v.SetDefault("scheduler.journal_ttl_hours", 72)

	v.SetDefault("notify.send_timeout", 10)
	v.SetDefault("notify.rate_per_second", 5.0)
	v.SetDefault("notify.burst", 10)
	v.SetDefault("notify.breaker_failures", 5)
	v.SetDefault("notify.breaker_timeout", 60)
	v.SetDefault("notify.chat_backend", "telegram")
	v.SetDefault("notify.smtp.host", "")
	v.SetDefault("notify.smtp.port", 587)
	v.SetDefault("notify.smtp.username", "")
	v.SetDefault("notify.smtp.password", "")
	v.SetDefault("notify.smtp.from", "")
	v.SetDefault("notify.telegram.bot_token", "")
	v.SetDefault("notify.discord.token", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
}

func getDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "medtrack")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "medtrack")
}

// loadEnvOverrides applies secrets that are commonly set under shorter names
func loadEnvOverrides(cfg *Config) {
	if v := ResolveEnvWithAliases("MEDTRACK_AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := ResolveEnvWithAliases("MEDTRACK_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := ResolveEnvWithAliases("MEDTRACK_NOTIFY_SMTP_PASSWORD"); v != "" {
		cfg.Notify.SMTP.Password = v
	}
	if v := ResolveEnvWithAliases("MEDTRACK_NOTIFY_TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notify.Telegram.BotToken = v
	}
	if v := ResolveEnvWithAliases("MEDTRACK_NOTIFY_DISCORD_TOKEN"); v != "" {
		cfg.Notify.Discord.Token = v
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	cfg.Storage.SQLitePath = expandPath(cfg.Storage.SQLitePath)
	cfg.Storage.BadgerPath = expandPath(cfg.Storage.BadgerPath)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "sqlite":
		if cfg.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if cfg.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be sqlite or postgres, got %q", cfg.Storage.Driver)
	}

	if _, err := time.LoadLocation(cfg.Scheduler.Timezone); err != nil {
		return fmt.Errorf("scheduler.timezone: %w", err)
	}
	if cfg.Scheduler.MaxConcurrent < 1 {
		cfg.Scheduler.MaxConcurrent = 1
	}

	switch cfg.Notify.ChatBackend {
	case "telegram", "discord":
	default:
		return fmt.Errorf("notify.chat_backend must be telegram or discord, got %q", cfg.Notify.ChatBackend)
	}

	// Tokens signed with a generated secret stop verifying after a restart.
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = generateRandomString(32)
		cfg.Auth.SecretGenerated = true
	}

	return nil
}

func generateRandomString(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	return hex.EncodeToString(b)
}

// Location returns the scheduler's reference timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.Notify.SendTimeout) * time.Second
}

func (c *Config) BreakerCooldown() time.Duration {
	return time.Duration(c.Notify.BreakerTimeout) * time.Second
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

func (c *Config) JournalTTL() time.Duration {
	return time.Duration(c.Scheduler.JournalTTLHours) * time.Hour
}

// WriteDefault writes the default configuration as YAML to path.
func WriteDefault(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	data, err := yaml.Marshal(Default(dataDir))
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Watch re-reads path whenever it changes and hands the result to onChange.
// Invalid edits are reported through onError and otherwise ignored.
func Watch(path, dataDir string, onChange func(*Config), onError func(error)) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		onError(fmt.Errorf("failed to read config: %w", err))
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Load(e.Name, dataDir)
		if err != nil {
			onError(err)
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}
