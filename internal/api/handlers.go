package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gmsas95/medtrack/internal/adherence"
	apperrors "github.com/gmsas95/medtrack/internal/errors"
	"github.com/gmsas95/medtrack/internal/medication"
	"github.com/gmsas95/medtrack/internal/scheduler"
)

const analyticsDefaultDays = 7

func (s *Server) handleHealth(c *fiber.Ctx) error {
	status := "healthy"
	code := fiber.StatusOK
	if s.deps.Ping != nil {
		if err := s.deps.Ping(); err != nil {
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}
	}
	return c.Status(code).JSON(HealthResponse{
		Status:    status,
		Version:   Version,
		Timestamp: time.Now().Unix(),
	})
}

func (s *Server) handleCreateSchedule(c *fiber.Ctx) error {
	var req medication.CreateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}

	sched, err := s.deps.Schedules.Create(c.UserContext(), userID(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(sched)
}

func (s *Server) handleListSchedules(c *fiber.Ctx) error {
	scheds, err := s.deps.Schedules.List(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(scheds)
}

func (s *Server) handleGetSchedule(c *fiber.Ctx) error {
	sched, err := s.deps.Schedules.Get(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(sched)
}

func (s *Server) handleUpdateSchedule(c *fiber.Ctx) error {
	var req medication.UpdateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}

	sched, err := s.deps.Schedules.Update(c.UserContext(), userID(c), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(sched)
}

func (s *Server) handleDeleteSchedule(c *fiber.Ctx) error {
	if err := s.deps.Schedules.Delete(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleRecordStatus(c *fiber.Ctx) error {
	var req adherence.RecordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}

	rec, err := s.deps.Writer.RecordStatus(c.UserContext(), userID(c), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

func (s *Server) handleDoses(c *fiber.Ctx) error {
	date, err := s.queryDate(c, "date", s.deps.Statuses.Today())
	if err != nil {
		return err
	}

	doses, err := s.deps.Statuses.DoseStatusesFor(c.UserContext(), userID(c), date)
	if err != nil {
		return err
	}
	return c.JSON(DosesResponse{Date: date, Doses: doses})
}

func (s *Server) handleAnalytics(c *fiber.Ctx) error {
	end, err := s.queryDate(c, "end", s.deps.Statuses.Today())
	if err != nil {
		return err
	}
	start, err := s.queryDate(c, "start", end.AddDays(-(analyticsDefaultDays - 1)))
	if err != nil {
		return err
	}

	summary, err := s.deps.Analytics.Summarize(c.UserContext(), userID(c), start, end)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func (s *Server) handleTicks(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 500 {
		return apperrors.Validation("limit must be between 1 and 500")
	}

	resp := TicksResponse{Ticks: []scheduler.TickReport{}}
	if s.deps.Journal == nil {
		return c.JSON(resp)
	}

	reports, err := s.deps.Journal.Recent(limit)
	if err != nil {
		return err
	}
	resp.Ticks = append(resp.Ticks, reports...)
	return c.JSON(resp)
}

func (s *Server) queryDate(c *fiber.Ctx, key string, fallback medication.Date) (medication.Date, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := medication.ParseDate(raw)
	if err != nil {
		return medication.Date{}, apperrors.Validation("%s: %v", key, err)
	}
	return d, nil
}
