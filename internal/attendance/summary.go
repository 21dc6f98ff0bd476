package attendance

import (
	"time"

	"session-attendance-bot/internal/models"
)

// Summarize сворачивает дни месяца в сводку. days должны быть уже разрешены Resolver.
func Summarize(therapistID uint, year, month int, days []models.AttendanceDayRecord, sessions []models.SessionTimeLog, today time.Time) models.MonthlyAttendanceSummary {
	summary := models.MonthlyAttendanceSummary{
		TherapistID:  therapistID,
		Year:         year,
		Month:        month,
		StatusCounts: make(map[models.DayStatus]int),
	}
	todayKey := models.DateKey(today)

	for i := range days {
		d := &days[i]
		summary.StatusCounts[d.Status]++

		if !d.Status.IsCalendar() {
			summary.WorkingDays++
		}
		if d.HasAppointments {
			summary.AppointmentDays++
		}
		if d.Status == models.DayUpcoming && d.Date < todayKey {
			summary.UnmarkedDays++
		}
		if d.PendingRequestID != nil {
			summary.PendingDays++
		}
		if needsApproval(d.Status) && !d.IsApproved {
			summary.UnapprovedDays++
		}
	}

	for i := range sessions {
		s := &sessions[i]
		summary.Sessions++
		if s.IsCompleted() {
			summary.CompletedSessions++
		}
		if s.TherapistDurationMinutes != nil {
			summary.TherapistMinutes += *s.TherapistDurationMinutes
		}
		if s.PatientConfirmedDurationMinutes != nil {
			summary.PatientMinutes += *s.PatientConfirmedDurationMinutes
		}
		if s.HasDiscrepancy {
			summary.Discrepancies++
		}
		if s.ActiveDiscrepancy() {
			summary.UnresolvedDiscrepancies++
		}
	}

	summary.CalculateStats()
	return summary
}

// needsApproval статусы, которые утверждает администратор
func needsApproval(status models.DayStatus) bool {
	return status.IsLeave() || status == models.DayAbsent || status == models.DayHalfDay
}

// MonthDays все даты месяца в зоне loc
func MonthDays(year, month int, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.Local
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	var days []time.Time
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
