package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/gmsas95/medtrack/internal/adherence"
	apperrors "github.com/gmsas95/medtrack/internal/errors"
	"github.com/gmsas95/medtrack/internal/medication"
	"github.com/gmsas95/medtrack/internal/scheduler"
)

type DosesResponse struct {
	Date  medication.Date        `json:"date"`
	Doses []adherence.DoseStatus `json:"doses"`
}

type TicksResponse struct {
	Ticks []scheduler.TickReport `json:"ticks"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"`
}

func statusFor(err error) (int, string) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError, apperrors.ErrInternal.Message
	}
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return fiber.StatusBadRequest, appErr.Message
	case errors.Is(err, apperrors.ErrNotFound):
		return fiber.StatusNotFound, appErr.Message
	case errors.Is(err, apperrors.ErrUnauthorized):
		return fiber.StatusUnauthorized, appErr.Message
	}
	return fiber.StatusInternalServerError, apperrors.ErrInternal.Message
}
