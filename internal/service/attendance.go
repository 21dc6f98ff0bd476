package service

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"session-attendance-bot/internal/apperror"
	"session-attendance-bot/internal/attendance"
	"session-attendance-bot/internal/models"
	"session-attendance-bot/internal/repository"
)

type AttendanceService struct {
	days     repository.AttendanceDayRepository
	requests repository.LeaveRequestRepository
	sessions repository.SessionTimeLogRepository
	holidays repository.NonWorkingDayRepository
	resolver *attendance.Resolver
	policy   attendance.Policy
	clock    Clock
	logger   *logrus.Logger
}

func NewAttendanceService(
	days repository.AttendanceDayRepository,
	requests repository.LeaveRequestRepository,
	sessions repository.SessionTimeLogRepository,
	holidays repository.NonWorkingDayRepository,
	policy attendance.Policy,
	clock Clock,
	logger *logrus.Logger,
) *AttendanceService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &AttendanceService{
		days:     days,
		requests: requests,
		sessions: sessions,
		holidays: holidays,
		resolver: attendance.NewResolver(policy),
		policy:   policy,
		clock:    clock,
		logger:   newLogger(logger),
	}
}

// ParseDate разбирает YYYY-MM-DD в часовом поясе учета
func (s *AttendanceService) ParseDate(value string) (time.Time, error) {
	date, err := models.ParseDate(value, s.policy.Zone())
	if err != nil {
		return time.Time{}, apperror.Validation("invalid_date", "%v", err)
	}
	return date, nil
}

func (s *AttendanceService) today() time.Time {
	return models.StartOfDay(s.clock.Now().In(s.policy.Zone()))
}

// dayState все исходные данные дня и его разрешенное состояние
type dayState struct {
	input    attendance.DayInput
	resolved models.AttendanceDayRecord
	ctx      attendance.DayContext
}

func (s *AttendanceService) loadDay(therapistID uint, date time.Time) (*dayState, error) {
	date = models.StartOfDay(date.In(s.policy.Zone()))
	key := models.DateKey(date)

	holiday, err := s.holidays.IsNonWorkingDay(key)
	if err != nil {
		return nil, fmt.Errorf("failed to check calendar: %w", err)
	}
	sessions, err := s.sessions.ListByTherapistAndDate(therapistID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	stored, err := s.days.GetByTherapistAndDate(therapistID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance day: %w", err)
	}
	requests, err := s.requests.ListByTherapistAndDate(therapistID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	in := attendance.DayInput{
		TherapistID: therapistID,
		Date:        date,
		Holiday:     holiday,
		Sessions:    sessions,
		Stored:      stored,
		Requests:    requests,
	}
	resolved := s.resolver.Resolve(in)

	return &dayState{
		input:    in,
		resolved: resolved,
		ctx: attendance.DayContext{
			Date:              date,
			Today:             s.today(),
			Holiday:           holiday,
			Weekend:           s.resolver.IsWeekend(date),
			HasAppointments:   resolved.HasAppointments,
			Current:           &resolved,
			HasPendingRequest: resolved.PendingRequestID != nil,
		},
	}, nil
}

// SubmitAttendance отметка посещаемости за сегодня или прошлый день
func (s *AttendanceService) SubmitAttendance(caller *models.User, date time.Time, status models.DayStatus, notes string) (*models.AttendanceDayRecord, error) {
	return s.submit(caller, date, attendance.Submission{Action: attendance.ActionSubmitAttendance, Status: status}, notes)
}

// SubmitAvailability терапевт свободен в день без приемов
func (s *AttendanceService) SubmitAvailability(caller *models.User, date time.Time, notes string) (*models.AttendanceDayRecord, error) {
	return s.submit(caller, date, attendance.Submission{Action: attendance.ActionSubmitAvailability, Status: models.DayAvailable}, notes)
}

func (s *AttendanceService) submit(caller *models.User, date time.Time, sub attendance.Submission, notes string) (*models.AttendanceDayRecord, error) {
	if err := requireRole(caller, models.RoleTherapist); err != nil {
		return nil, err
	}

	day, err := s.loadDay(caller.ID, date)
	if err != nil {
		return nil, err
	}

	logger := s.logger.WithFields(logrus.Fields{
		"therapist_id": caller.ID,
		"date":         day.resolved.Date,
		"action":       sub.Action,
		"status":       sub.Status,
	})

	if err := attendance.Validate(day.ctx, sub); err != nil {
		logger.WithError(err).Warn("Attendance submission rejected")
		return nil, err
	}

	now := s.clock.Now()
	rec := day.resolved
	rec.Status = sub.Status
	rec.Notes = notes
	rec.SubmittedAt = &now
	rec.IsApproved = sub.Status.SelfCertified()
	rec.ApprovedBy = nil
	rec.ApprovedAt = nil
	rec.PendingRequestID = nil

	// Отправка, вытесненная появившимися визитами, перезаписывается
	stored := day.input.Stored
	if stored != nil && stored.IsSubmitted() {
		err = s.days.Resubmit(&rec, stored.Status)
	} else {
		err = s.days.Submit(&rec)
	}
	if err != nil {
		return nil, err
	}

	logger.WithField("is_approved", rec.IsApproved).Info("Attendance submitted")
	return &rec, nil
}

// ApplyForLeave заявка на отпуск на будущую дату, ждет решения администратора
func (s *AttendanceService) ApplyForLeave(caller *models.User, date time.Time, leaveType models.DayStatus, reason string) (*models.LeaveRequest, error) {
	if err := requireRole(caller, models.RoleTherapist); err != nil {
		return nil, err
	}

	day, err := s.loadDay(caller.ID, date)
	if err != nil {
		return nil, err
	}
	sub := attendance.Submission{Action: attendance.ActionApplyLeave, LeaveType: leaveType, Reason: reason}
	if err := attendance.Validate(day.ctx, sub); err != nil {
		s.logger.WithFields(logrus.Fields{
			"therapist_id": caller.ID,
			"date":         day.resolved.Date,
			"leave_type":   leaveType,
		}).WithError(err).Warn("Leave application rejected")
		return nil, err
	}

	req, _, err := s.createRequest(day, models.RequestLeave, leaveType, reason)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// RecordPatientCancellation пациент отменил приемы будущего дня
func (s *AttendanceService) RecordPatientCancellation(caller *models.User, date time.Time, reason string) (*models.AttendanceDayRecord, error) {
	if err := requireRole(caller, models.RoleTherapist); err != nil {
		return nil, err
	}

	day, err := s.loadDay(caller.ID, date)
	if err != nil {
		return nil, err
	}
	if err := attendance.Validate(day.ctx, attendance.Submission{Action: attendance.ActionRecordCancellation, Reason: reason}); err != nil {
		s.logger.WithFields(logrus.Fields{
			"therapist_id": caller.ID,
			"date":         day.resolved.Date,
		}).WithError(err).Warn("Patient cancellation rejected")
		return nil, err
	}

	_, rec, err := s.createRequest(day, models.RequestPatientCancellation, "", reason)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// createRequest сохраняет заявку и отмечает ее на записи дня
func (s *AttendanceService) createRequest(day *dayState, kind models.RequestKind, leaveType models.DayStatus, reason string) (*models.LeaveRequest, *models.AttendanceDayRecord, error) {
	req := &models.LeaveRequest{
		TherapistID: day.input.TherapistID,
		Date:        day.resolved.Date,
		Kind:        kind,
		LeaveType:   leaveType,
		Reason:      reason,
		State:       models.RequestPending,
	}
	if err := s.requests.Create(req); err != nil {
		return nil, nil, err
	}

	rec := day.resolved
	rec.PendingRequestID = &req.ID
	if err := s.days.Save(&rec); err != nil {
		return nil, nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"request_id":   req.ID,
		"therapist_id": req.TherapistID,
		"date":         req.Date,
		"kind":         kind,
	}).Info("Request awaiting decision")
	return req, &rec, nil
}

// DecideLeaveRequest решение администратора по заявке
func (s *AttendanceService) DecideLeaveRequest(caller *models.User, requestID uint, approve bool) (*models.LeaveRequest, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	req, err := s.requests.GetByID(requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	if req == nil {
		return nil, apperror.NotFound("request_not_found", "request %d not found", requestID)
	}
	if !req.IsPending() {
		return nil, apperror.Conflict("request_already_decided", "request %d already %s", requestID, req.State)
	}

	state := models.RequestRejected
	if approve {
		state = models.RequestApproved
	}
	now := s.clock.Now()
	applied, err := s.requests.Decide(req.ID, state, caller.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to decide request: %w", err)
	}
	if !applied {
		return nil, apperror.Conflict("request_already_decided", "request %d already decided", requestID)
	}

	date, err := models.ParseDate(req.Date, s.policy.Zone())
	if err != nil {
		return nil, fmt.Errorf("stored request date: %w", err)
	}
	day, err := s.loadDay(req.TherapistID, date)
	if err != nil {
		return nil, err
	}
	rec := day.resolved
	if approve && rec.Status == models.DayApprovedLeave {
		rec.ApprovedBy = &caller.ID
		rec.ApprovedAt = &now
	}
	if err := s.days.Save(&rec); err != nil {
		return nil, err
	}

	req.State = state
	req.IsApproved = approve
	req.DecidedAt = &now
	req.DecidedBy = &caller.ID

	s.logger.WithFields(logrus.Fields{
		"request_id": req.ID,
		"state":      state,
		"admin_id":   caller.ID,
		"day_status": rec.Status,
	}).Info("Request decided")
	return req, nil
}

// ListPendingRequests нерассмотренные заявки, для администратора
func (s *AttendanceService) ListPendingRequests(caller *models.User) ([]models.LeaveRequest, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	reqs, err := s.requests.ListPending()
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return reqs, nil
}

// ApproveAttendance администратор утверждает отправленный день
func (s *AttendanceService) ApproveAttendance(caller *models.User, therapistID uint, date time.Time) (*models.AttendanceDayRecord, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	day, err := s.loadDay(therapistID, date)
	if err != nil {
		return nil, err
	}
	rec := day.resolved

	switch {
	case rec.Status.IsCalendar():
		return nil, apperror.Immutable("calendar_day_locked", "%s is a %s", rec.Date, rec.Status)
	case !rec.IsSubmitted():
		return nil, apperror.InvalidState("day_not_submitted", "attendance for %s is not submitted", rec.Date)
	case rec.IsApproved:
		return nil, apperror.Conflict("day_already_approved", "attendance for %s already approved", rec.Date)
	}

	now := s.clock.Now()
	rec.IsApproved = true
	rec.ApprovedBy = &caller.ID
	rec.ApprovedAt = &now
	if err := s.days.Approve(&rec); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"therapist_id": therapistID,
		"date":         rec.Date,
		"status":       rec.Status,
		"admin_id":     caller.ID,
	}).Info("Attendance approved")
	return &rec, nil
}

// GetMonthAttendance все дни месяца терапевта, каждый разрешен на чтение
func (s *AttendanceService) GetMonthAttendance(caller *models.User, therapistID uint, year, month int) ([]models.AttendanceDayRecord, error) {
	if err := requireTherapistAccess(caller, therapistID); err != nil {
		return nil, err
	}
	days, _, err := s.month(therapistID, year, month)
	return days, err
}

// GetMonthSummary сводка месяца терапевта
func (s *AttendanceService) GetMonthSummary(caller *models.User, therapistID uint, year, month int) (*models.MonthlyAttendanceSummary, error) {
	if err := requireTherapistAccess(caller, therapistID); err != nil {
		return nil, err
	}
	days, sessions, err := s.month(therapistID, year, month)
	if err != nil {
		return nil, err
	}

	summary := attendance.Summarize(therapistID, year, month, days, sessions, s.today())
	return &summary, nil
}

func (s *AttendanceService) month(therapistID uint, year, month int) ([]models.AttendanceDayRecord, []models.SessionTimeLog, error) {
	if month < 1 || month > 12 || year < 2000 || year > 2100 {
		return nil, nil, apperror.Validation("invalid_month", "invalid month %04d-%02d", year, month)
	}

	sessions, err := s.sessions.ListByTherapistAndMonth(therapistID, year, month)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	stored, err := s.days.ListByTherapistAndMonth(therapistID, year, month)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list attendance days: %w", err)
	}
	requests, err := s.requests.ListByTherapistAndMonth(therapistID, year, month)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list requests: %w", err)
	}
	holidays, err := s.holidays.GetByYearMonth(year, month)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list holidays: %w", err)
	}

	sessionsByDate := make(map[string][]models.SessionTimeLog)
	for _, log := range sessions {
		sessionsByDate[log.ScheduledDate] = append(sessionsByDate[log.ScheduledDate], log)
	}
	storedByDate := make(map[string]*models.AttendanceDayRecord, len(stored))
	for i := range stored {
		storedByDate[stored[i].Date] = &stored[i]
	}
	requestsByDate := make(map[string][]models.LeaveRequest)
	for _, req := range requests {
		requestsByDate[req.Date] = append(requestsByDate[req.Date], req)
	}
	holidaySet := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		holidaySet[h.Date] = true
	}

	dates := attendance.MonthDays(year, month, s.policy.Zone())
	days := make([]models.AttendanceDayRecord, 0, len(dates))
	for _, date := range dates {
		key := models.DateKey(date)
		days = append(days, s.resolver.Resolve(attendance.DayInput{
			TherapistID: therapistID,
			Date:        date,
			Holiday:     holidaySet[key],
			Sessions:    sessionsByDate[key],
			Stored:      storedByDate[key],
			Requests:    requestsByDate[key],
		}))
	}

	s.logger.WithFields(logrus.Fields{
		"therapist_id": therapistID,
		"year":         year,
		"month":        month,
		"sessions":     len(sessions),
	}).Debug("Month attendance resolved")
	return days, sessions, nil
}
