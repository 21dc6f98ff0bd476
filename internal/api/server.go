package api

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"session-attendance-bot/internal/service"
)

// Server HTTP API поверх тех же сервисов, что и бот
type Server struct {
	app        *fiber.App
	users      *service.UserService
	sessions   *service.SessionService
	attendance *service.AttendanceService
	validate   *validator.Validate
	logger     *logrus.Logger
}

func NewServer(
	users *service.UserService,
	sessions *service.SessionService,
	attendance *service.AttendanceService,
	logger *logrus.Logger,
) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Server{
		users:      users,
		sessions:   sessions,
		attendance: attendance,
		validate:   validator.New(),
		logger:     logger,
	}
	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if StatusOf(err) == fiber.StatusInternalServerError {
				s.logger.WithError(err).WithField("path", c.Path()).Error("Request failed")
			}
			return FromError(c, err)
		},
	})
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(s.requestLogger)
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	v1 := s.app.Group("/api/v1", s.identify)

	v1.Get("/sessions/today", s.todaySessions)
	v1.Post("/sessions", s.scheduleSession)
	v1.Get("/sessions/:id", s.getSession)
	v1.Post("/sessions/:id/resolve", s.resolveDiscrepancy)
	v1.Post("/sessions/:id/:action", s.markSession)
	v1.Get("/discrepancies", s.listDiscrepancies)

	v1.Post("/attendance", s.submitAttendance)
	v1.Post("/availability", s.submitAvailability)
	v1.Post("/leave", s.applyForLeave)
	v1.Get("/leave/pending", s.pendingRequests)
	v1.Post("/leave/:id/decision", s.decideRequest)
	v1.Post("/cancellations", s.recordCancellation)
	v1.Post("/attendance/:therapist_id/:date/approve", s.approveAttendance)
	v1.Get("/attendance/:therapist_id/:year/:month", s.monthAttendance)
	v1.Get("/attendance/:therapist_id/:year/:month/summary", s.monthSummary)
}

// App для тестов через app.Test
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.WithField("addr", addr).Info("HTTP server listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// bind разбирает тело и проверяет DTO
func (s *Server) bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	return s.validate.Struct(dst)
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}
