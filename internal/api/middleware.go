package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/gmsas95/medtrack/internal/errors"
	"github.com/gmsas95/medtrack/internal/metrics"
)

const localUserID = "userID"

func (s *Server) authMiddleware() fiber.Handler {
	secret := []byte(s.config.Auth.JWTSecret)
	return func(c *fiber.Ctx) error {
		auth := c.Get(fiber.HeaderAuthorization)
		if auth == "" {
			return apperrors.New(apperrors.CodeUnauthorized, "missing authorization header")
		}

		userID, err := ParseToken(secret, strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			return apperrors.New(apperrors.CodeUnauthorized, "invalid token", err)
		}

		c.Locals(localUserID, userID)
		return c.Next()
	}
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// requestLogger resolves handler errors itself so the logged and counted
// status is the one the client sees.
func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		metrics.RecordRequest(c.Method(), status)
		s.logger.Debug("Request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		)
		return nil
	}
}

// errorHandler maps AppError codes onto HTTP statuses.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	if apperrors.IsAppError(err) {
		status, msg := statusFor(err)
		if status == fiber.StatusInternalServerError {
			s.logger.Error("Request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}
		code := apperrors.GetCode(err)
		if status == fiber.StatusInternalServerError {
			code = apperrors.ErrInternal.Code
		}
		return c.Status(status).JSON(fiber.Map{"error": msg, "code": code})
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	s.logger.Error("Request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": apperrors.ErrInternal.Message,
		"code":  apperrors.ErrInternal.Code,
	})
}
