package attendance

import (
	"time"

	"session-attendance-bot/internal/models"
)

// DayInput исходные данные для вычисления статуса дня
type DayInput struct {
	TherapistID uint
	Date        time.Time
	Holiday     bool
	Sessions    []models.SessionTimeLog

	// Stored сохраненная запись дня, nil если отправок еще не было
	Stored *models.AttendanceDayRecord

	// Requests заявки на эту дату (любые состояния)
	Requests []models.LeaveRequest
}

// Resolver вычисляет AttendanceDayRecord из сессий, отправок и календаря
type Resolver struct {
	policy Policy
}

func NewResolver(policy Policy) *Resolver {
	return &Resolver{policy: policy}
}

// IsWeekend проверяет день недели по политике
func (r *Resolver) IsWeekend(date time.Time) bool {
	return r.policy.IsNonWorkingWeekday(date.In(r.policy.Zone()).Weekday())
}

// Resolve возвращает запись дня. Результат зависит только от входа, повторный
// вызов дает то же значение.
func (r *Resolver) Resolve(in DayInput) models.AttendanceDayRecord {
	var rec models.AttendanceDayRecord
	if in.Stored != nil {
		rec = *in.Stored
	}
	rec.TherapistID = in.TherapistID
	rec.Date = models.DateKey(in.Date)
	rec.HasAppointments = len(in.Sessions) > 0
	rec.PendingRequestID = nil
	aggregateSessions(&rec, in.Sessions)

	switch {
	case in.Holiday:
		calendarDay(&rec, models.DayHoliday)
		return rec
	case r.IsWeekend(in.Date):
		calendarDay(&rec, models.DayWeekend)
		return rec
	}

	for i := range in.Requests {
		req := in.Requests[i]
		switch req.State {
		case models.RequestPending:
			id := req.ID
			rec.PendingRequestID = &id
		case models.RequestApproved:
			// Одобренный отпуск и одобренная отмена визитов дают approved_leave
			rec.Status = models.DayApprovedLeave
			rec.IsApproved = true
			if rec.SubmittedAt == nil {
				created := req.CreatedAt
				rec.SubmittedAt = &created
			}
			return rec
		}
	}

	if in.Stored != nil && in.Stored.IsSubmitted() && compatible(in.Stored.Status, rec.HasAppointments) {
		return rec
	}

	// Отправки нет или она противоречит наличию визитов
	rec.SubmittedAt = nil
	rec.IsApproved = false
	rec.ApprovedBy = nil
	rec.ApprovedAt = nil
	if rec.HasAppointments {
		rec.Status = models.DayUpcoming
	} else {
		rec.Status = models.DayFreeDay
	}
	return rec
}

// compatible статус допустим при данном наличии визитов
func compatible(status models.DayStatus, hasAppointments bool) bool {
	switch {
	case status.IsLeave():
		return true
	case status == models.DayPresent, status == models.DayAbsent, status == models.DayHalfDay:
		return hasAppointments
	case status == models.DayAvailable:
		return !hasAppointments
	}
	return false
}

func calendarDay(rec *models.AttendanceDayRecord, status models.DayStatus) {
	rec.Status = status
	rec.IsApproved = false
	rec.SubmittedAt = nil
	rec.PendingRequestID = nil
}

func aggregateSessions(rec *models.AttendanceDayRecord, sessions []models.SessionTimeLog) {
	rec.SessionCount = len(sessions)
	rec.HasDiscrepancy = false
	rec.UnresolvedDiscrepancies = 0
	rec.TherapistMinutes = 0
	rec.PatientMinutes = 0

	for i := range sessions {
		s := &sessions[i]
		if s.HasDiscrepancy {
			rec.HasDiscrepancy = true
		}
		if s.ActiveDiscrepancy() {
			rec.UnresolvedDiscrepancies++
		}
		if s.TherapistDurationMinutes != nil {
			rec.TherapistMinutes += *s.TherapistDurationMinutes
		}
		if s.PatientConfirmedDurationMinutes != nil {
			rec.PatientMinutes += *s.PatientConfirmedDurationMinutes
		}
	}
}
