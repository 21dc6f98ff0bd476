package api

import (
	"github.com/gofiber/fiber/v2"

	"session-attendance-bot/internal/models"
)

func (s *Server) bindError(c *fiber.Ctx, err error) error {
	if _, ok := err.(*fiber.Error); ok {
		return err
	}
	return ValidationError(c, err)
}

// POST /api/v1/attendance
func (s *Server) submitAttendance(c *fiber.Ctx) error {
	var req AttendanceRequest
	if err := s.bind(c, &req); err != nil {
		return s.bindError(c, err)
	}
	date, err := s.attendance.ParseDate(req.Date)
	if err != nil {
		return err
	}

	rec, err := s.attendance.SubmitAttendance(caller(c), date, models.DayStatus(req.Status), req.Notes)
	if err != nil {
		return err
	}
	return SuccessWithCode(c, fiber.StatusCreated, "attendance submitted", rec)
}

// POST /api/v1/availability
func (s *Server) submitAvailability(c *fiber.Ctx) error {
	var req AvailabilityRequest
	if err := s.bind(c, &req); err != nil {
		return s.bindError(c, err)
	}
	date, err := s.attendance.ParseDate(req.Date)
	if err != nil {
		return err
	}

	rec, err := s.attendance.SubmitAvailability(caller(c), date, req.Notes)
	if err != nil {
		return err
	}
	return SuccessWithCode(c, fiber.StatusCreated, "availability submitted", rec)
}

// POST /api/v1/leave
func (s *Server) applyForLeave(c *fiber.Ctx) error {
	var req LeaveRequest
	if err := s.bind(c, &req); err != nil {
		return s.bindError(c, err)
	}
	date, err := s.attendance.ParseDate(req.Date)
	if err != nil {
		return err
	}

	lr, err := s.attendance.ApplyForLeave(caller(c), date, models.DayStatus(req.LeaveType), req.Reason)
	if err != nil {
		return err
	}
	return SuccessWithCode(c, fiber.StatusCreated, "leave requested", lr)
}

// POST /api/v1/cancellations
func (s *Server) recordCancellation(c *fiber.Ctx) error {
	var req CancellationRequest
	if err := s.bind(c, &req); err != nil {
		return s.bindError(c, err)
	}
	date, err := s.attendance.ParseDate(req.Date)
	if err != nil {
		return err
	}

	rec, err := s.attendance.RecordPatientCancellation(caller(c), date, req.Reason)
	if err != nil {
		return err
	}
	return SuccessWithCode(c, fiber.StatusCreated, "cancellation recorded", rec)
}

// GET /api/v1/leave/pending
func (s *Server) pendingRequests(c *fiber.Ctx) error {
	reqs, err := s.attendance.ListPendingRequests(caller(c))
	if err != nil {
		return err
	}
	return Success(c, "pending requests", reqs)
}

// POST /api/v1/leave/:id/decision
func (s *Server) decideRequest(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req DecisionRequest
	if err := s.bind(c, &req); err != nil {
		return s.bindError(c, err)
	}

	lr, err := s.attendance.DecideLeaveRequest(caller(c), id, *req.Approve)
	if err != nil {
		return err
	}
	return Success(c, "request decided", lr)
}

// POST /api/v1/attendance/:therapist_id/:date/approve
func (s *Server) approveAttendance(c *fiber.Ctx) error {
	therapistID, err := paramID(c, "therapist_id")
	if err != nil {
		return err
	}
	date, err := s.attendance.ParseDate(c.Params("date"))
	if err != nil {
		return err
	}

	rec, err := s.attendance.ApproveAttendance(caller(c), therapistID, date)
	if err != nil {
		return err
	}
	return Success(c, "attendance approved", rec)
}

func monthParams(c *fiber.Ctx) (uint, int, int, error) {
	therapistID, err := paramID(c, "therapist_id")
	if err != nil {
		return 0, 0, 0, err
	}
	year, err := c.ParamsInt("year")
	if err != nil {
		return 0, 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid year")
	}
	month, err := c.ParamsInt("month")
	if err != nil {
		return 0, 0, 0, fiber.NewError(fiber.StatusBadRequest, "invalid month")
	}
	return therapistID, year, month, nil
}

// GET /api/v1/attendance/:therapist_id/:year/:month
func (s *Server) monthAttendance(c *fiber.Ctx) error {
	therapistID, year, month, err := monthParams(c)
	if err != nil {
		return err
	}

	days, err := s.attendance.GetMonthAttendance(caller(c), therapistID, year, month)
	if err != nil {
		return err
	}
	return Success(c, "month attendance", days)
}

// GET /api/v1/attendance/:therapist_id/:year/:month/summary
func (s *Server) monthSummary(c *fiber.Ctx) error {
	therapistID, year, month, err := monthParams(c)
	if err != nil {
		return err
	}

	summary, err := s.attendance.GetMonthSummary(caller(c), therapistID, year, month)
	if err != nil {
		return err
	}
	return Success(c, "month summary", summary)
}
