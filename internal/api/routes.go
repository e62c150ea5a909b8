package api

import (
	"strings"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/gmsas95/medtrack/internal/metrics"
)

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())
	s.app.Use(s.requestLogger())
	if len(s.config.Server.AllowOrigins) > 0 {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(s.config.Server.AllowOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		}))
	}

	s.app.Get("/health", s.handleHealth)
	s.app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := s.app.Group("/api", s.authMiddleware())

	api.Post("/schedules", s.handleCreateSchedule)
	api.Get("/schedules", s.handleListSchedules)
	api.Get("/schedules/:id", s.handleGetSchedule)
	api.Patch("/schedules/:id", s.handleUpdateSchedule)
	api.Delete("/schedules/:id", s.handleDeleteSchedule)
	api.Put("/schedules/:id/dose-status", s.handleRecordStatus)

	api.Get("/doses", s.handleDoses)
	api.Get("/analytics", s.handleAnalytics)
	api.Get("/ticks", s.handleTicks)
}
