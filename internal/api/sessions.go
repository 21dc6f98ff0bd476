package api

import (
	"github.com/gofiber/fiber/v2"

	"session-attendance-bot/internal/attendance"
	"session-attendance-bot/internal/models"
	"session-attendance-bot/internal/service"
)

type markFunc func(*service.SessionService, *models.User, uint) (*models.SessionTimeLog, error)

var markActions = map[string]markFunc{
	"reached":   (*service.SessionService).TherapistMarkReached,
	"leaving":   (*service.SessionService).TherapistMarkLeaving,
	"arrival":   (*service.SessionService).PatientConfirmArrival,
	"departure": (*service.SessionService).PatientConfirmDeparture,
}

// GET /api/v1/sessions/today
func (s *Server) todaySessions(c *fiber.Ctx) error {
	views, err := s.sessions.GetTodaySessions(caller(c))
	if err != nil {
		return err
	}
	return Success(c, "today sessions", views)
}

// POST /api/v1/sessions
func (s *Server) scheduleSession(c *fiber.Ctx) error {
	var req ScheduleSessionRequest
	if err := s.bind(c, &req); err != nil {
		return s.bindError(c, err)
	}
	date, err := s.attendance.ParseDate(req.Date)
	if err != nil {
		return err
	}

	user := caller(c)
	log, err := s.sessions.ScheduleSession(user, req.AppointmentID, req.TherapistID, req.PatientID, date)
	if err != nil {
		return err
	}
	return SuccessWithCode(c, fiber.StatusCreated, "session scheduled", attendance.Project(*log, user.Role))
}

// GET /api/v1/sessions/:id
func (s *Server) getSession(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	view, err := s.sessions.GetSession(caller(c), id)
	if err != nil {
		return err
	}
	return Success(c, "session", view)
}

// POST /api/v1/sessions/:id/reached|leaving|arrival|departure
func (s *Server) markSession(c *fiber.Ctx) error {
	mark, ok := markActions[c.Params("action")]
	if !ok {
		return fiber.ErrNotFound
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	user := caller(c)
	log, err := mark(s.sessions, user, id)
	if err != nil {
		return err
	}
	return Success(c, "session updated", attendance.Project(*log, user.Role))
}

// POST /api/v1/sessions/:id/resolve
func (s *Server) resolveDiscrepancy(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	user := caller(c)
	log, err := s.sessions.ResolveDiscrepancy(user, id)
	if err != nil {
		return err
	}
	return Success(c, "discrepancy resolved", attendance.Project(*log, user.Role))
}

// GET /api/v1/discrepancies?all=true
func (s *Server) listDiscrepancies(c *fiber.Ctx) error {
	user := caller(c)
	logs, err := s.sessions.ListDiscrepancies(user, !c.QueryBool("all"))
	if err != nil {
		return err
	}
	return Success(c, "discrepancies", attendance.ProjectAll(logs, user.Role))
}
