package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/gmsas95/medtrack/internal/adherence"
	"github.com/gmsas95/medtrack/internal/api"
	"github.com/gmsas95/medtrack/internal/clock"
	"github.com/gmsas95/medtrack/internal/config"
	"github.com/gmsas95/medtrack/internal/medication"
	"github.com/gmsas95/medtrack/internal/notify"
	"github.com/gmsas95/medtrack/internal/scheduler"
	"github.com/gmsas95/medtrack/internal/store"
)

type App struct {
	Config     *config.Config
	ConfigPath string
	Store      *store.Store
	Logger     *zap.Logger
	Level      zap.AtomicLevel
	Clock      clock.Clock
	Version    string

	Schedules  *medication.Service
	Writer     *adherence.Writer
	Statuses   *adherence.StatusJoin
	Analytics  *adherence.Aggregator
	Dispatcher *notify.Dispatcher
	Channels   []*notify.Guarded
	Journal    *scheduler.Journal
	Scheduler  *scheduler.Scheduler
}

// New wires the domain services on top of an opened store.
func New(cfg *config.Config, st *store.Store, logger *zap.Logger, clk clock.Clock, version string) *App {
	if clk == nil {
		clk = clock.System{}
	}
	loc := cfg.Location()

	app := &App{
		Config:  cfg,
		Store:   st,
		Logger:  logger,
		Level:   zap.NewAtomicLevel(),
		Clock:   clk,
		Version: version,
	}

	app.Schedules = medication.NewService(st, logger,
		medication.WithChatFormat(medication.ChatFormat(cfg.Notify.ChatBackend)))
	app.Writer = adherence.NewWriter(st, st, logger)
	app.Statuses = adherence.NewStatusJoin(st, st, clk, loc)
	app.Analytics = adherence.NewAggregator(st)
	app.Dispatcher, app.Channels = BuildDispatcher(cfg, logger)
	app.Journal = scheduler.NewJournal(st, cfg.JournalTTL())
	app.Scheduler = scheduler.New(scheduler.Config{
		Spec:          cfg.Scheduler.Spec,
		Location:      loc,
		MaxConcurrent: cfg.Scheduler.MaxConcurrent,
	}, st, app.Dispatcher, app.Journal, clk, logger)

	return app
}

// APIDeps exposes the services the HTTP layer needs.
func (app *App) APIDeps() api.Deps {
	return api.Deps{
		Schedules: app.Schedules,
		Writer:    app.Writer,
		Statuses:  app.Statuses,
		Analytics: app.Analytics,
		Journal:   app.Journal,
		Ping:      app.Store.Ping,
	}
}

// BuildDispatcher registers one guarded transport per channel selector. A
// selector with no configured transport falls back to logging the reminder.
func BuildDispatcher(cfg *config.Config, logger *zap.Logger) (*notify.Dispatcher, []*notify.Guarded) {
	d := notify.NewDispatcher(cfg.SendTimeout(), logger)
	guard := notify.GuardConfig{
		RatePerSecond:   cfg.Notify.RatePerSecond,
		Burst:           cfg.Notify.Burst,
		MaxFailures:     uint32(cfg.Notify.BreakerFailures),
		BreakerCooldown: cfg.BreakerCooldown(),
	}

	email := notify.NewGuarded(emailChannel(cfg, logger), guard, logger)
	chat := notify.NewGuarded(chatChannel(cfg, logger), guard, logger)
	d.Register(medication.ChannelEmail, email)
	d.Register(medication.ChannelChat, chat)

	return d, []*notify.Guarded{email, chat}
}

func emailChannel(cfg *config.Config, logger *zap.Logger) notify.Channel {
	smtp := cfg.Notify.SMTP
	if smtp.Host == "" {
		logger.Warn("SMTP not configured, email reminders will only be logged")
		return notify.NewLogChannel("email", logger)
	}

	ch, err := notify.NewEmail(notify.EmailConfig{
		Host:     smtp.Host,
		Port:     smtp.Port,
		Username: smtp.Username,
		Password: smtp.Password,
		From:     smtp.From,
	})
	if err != nil {
		logger.Error("Failed to configure email channel", zap.Error(err))
		return notify.NewLogChannel("email", logger)
	}
	return ch
}

func chatChannel(cfg *config.Config, logger *zap.Logger) notify.Channel {
	switch cfg.Notify.ChatBackend {
	case "discord":
		if cfg.Notify.Discord.Token == "" {
			break
		}
		ch, err := notify.NewDiscord(cfg.Notify.Discord.Token)
		if err != nil {
			logger.Error("Failed to create Discord channel", zap.Error(err))
			break
		}
		return ch
	default:
		if cfg.Notify.Telegram.BotToken == "" {
			break
		}
		ch, err := notify.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.SendTimeout())
		if err != nil {
			logger.Error("Failed to create Telegram channel", zap.Error(err))
			break
		}
		return ch
	}

	logger.Warn("Chat backend not configured, chat reminders will only be logged",
		zap.String("backend", cfg.Notify.ChatBackend))
	return notify.NewLogChannel("chat", logger)
}

// ApplyConfig takes the settings that can change without a restart.
func (app *App) ApplyConfig(cfg *config.Config) {
	if err := app.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		app.Logger.Warn("Ignoring invalid log level", zap.String("level", cfg.Log.Level))
		return
	}
	app.Logger.Info("Configuration reloaded", zap.String("log_level", cfg.Log.Level))
}

func (app *App) RunServer() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if app.Config.Scheduler.Enabled {
		if err := app.Scheduler.Start(ctx); err != nil {
			app.Logger.Error("Failed to start scheduler", zap.Error(err))
		}
	} else {
		app.Logger.Info("Scheduler disabled")
	}

	if app.ConfigPath != "" {
		config.Watch(app.ConfigPath, app.Config.Storage.DataDir, app.ApplyConfig, func(err error) {
			app.Logger.Warn("Config watch error", zap.Error(err))
		})
	}

	server := api.New(app.Config, app.APIDeps(), app.Logger)

	go func() {
		if err := server.Start(); err != nil {
			app.Logger.Fatal("Server error", zap.Error(err))
		}
	}()

	app.Logger.Info("Server started",
		zap.String("version", app.Version),
		zap.String("address", app.Config.Server.Address),
		zap.Int("port", app.Config.Server.Port),
		zap.String("url", fmt.Sprintf("http://localhost:%d", app.Config.Server.Port)),
		zap.String("timezone", app.Config.Scheduler.Timezone),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info("Shutting down...")

	app.Scheduler.Stop()
	cancel()

	if err := server.Shutdown(); err != nil {
		app.Logger.Error("Server shutdown error", zap.Error(err))
	}
}
