package api

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/gmsas95/medtrack/internal/adherence"
	"github.com/gmsas95/medtrack/internal/config"
	"github.com/gmsas95/medtrack/internal/medication"
	"github.com/gmsas95/medtrack/internal/scheduler"
)

const Version = "0.3.0"

// Deps are the domain services the API exposes.
type Deps struct {
	Schedules *medication.Service
	Writer    *adherence.Writer
	Statuses  *adherence.StatusJoin
	Analytics *adherence.Aggregator
	Journal   *scheduler.Journal
	Ping      func() error
}

// Server handles the HTTP API
type Server struct {
	app    *fiber.App
	config *config.Config
	deps   Deps
	logger *zap.Logger
}

func New(cfg *config.Config, deps Deps, logger *zap.Logger) *Server {
	s := &Server{
		config: cfg,
		deps:   deps,
		logger: logger.Named("api"),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "medtrack",
		ReadTimeout:           time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:           120 * time.Second,
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: true,
	})

	s.setupRoutes()
	return s
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Address, s.config.Server.Port)
	s.logger.Info("API listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}
