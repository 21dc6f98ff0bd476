package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"session-attendance-bot/internal/apperror"
	"session-attendance-bot/internal/models"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"

	localRequestID = "request_id"
	localUser      = "user"
)

// requestLogger проставляет X-Request-ID и пишет access log
func (s *Server) requestLogger(c *fiber.Ctx) error {
	id := c.Get(HeaderRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(HeaderRequestID, id)
	c.Locals(localRequestID, id)

	start := time.Now()
	err := c.Next()
	if err != nil {
		if herr := s.app.ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": id,
		"method":     c.Method(),
		"path":       c.OriginalURL(),
		"status":     c.Response().StatusCode(),
		"duration":   time.Since(start).String(),
	}).Info("HTTP request")
	return nil
}

// identify определяет пользователя по заголовку шлюза X-User-ID
func (s *Server) identify(c *fiber.Ctx) error {
	raw := c.Get(HeaderUserID)
	if raw == "" {
		return Error(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "", "X-User-ID header required")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return Error(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "", "invalid X-User-ID header")
	}

	user, err := s.users.GetByID(uint(id))
	if apperror.IsNotFound(err) {
		return Error(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "", "unknown user")
	}
	if err != nil {
		return err
	}

	c.Locals(localUser, user)
	return c.Next()
}

func caller(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}
