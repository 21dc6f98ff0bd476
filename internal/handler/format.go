package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"session-attendance-bot/internal/apperror"
	"session-attendance-bot/internal/attendance"
	"session-attendance-bot/internal/models"
)

var sessionStatusNames = map[models.SessionStatus]string{
	models.SessionScheduled:        "запланирован",
	models.SessionTherapistReached: "терапевт на месте",
	models.SessionInProgress:       "идет визит",
	models.SessionTherapistLeft:    "терапевт ушел",
	models.SessionCompleted:        "завершен",
}

var dayStatusNames = map[models.DayStatus]string{
	models.DayUpcoming:       "⏳ предстоит",
	models.DayPresent:        "✅ присутствовал",
	models.DayAbsent:         "❌ отсутствовал",
	models.DayHalfDay:        "🌓 полдня",
	models.DayApprovedLeave:  "🏖️ отпуск",
	models.DaySickLeave:      "🤒 больничный",
	models.DayEmergencyLeave: "🚨 экстренный отгул",
	models.DayAvailable:      "🟢 свободен",
	models.DayFreeDay:        "⚪ нет визитов",
	models.DayHoliday:        "🎉 праздник",
	models.DayWeekend:        "💤 выходной",
}

// errorText текст ошибки для пользователя
func errorText(err error) string {
	e, ok := apperror.As(err)
	if !ok {
		return "❌ Внутренняя ошибка: " + err.Error()
	}

	prefix := "❌"
	switch e.Kind {
	case apperror.KindConflict:
		prefix = "⚠️ Уже отмечено:"
	case apperror.KindInvalidState:
		prefix = "⛔ Недопустимый порядок отметок:"
	case apperror.KindValidation:
		prefix = "❌ Нельзя:"
	case apperror.KindImmutable:
		prefix = "🔒 Запись закрыта:"
	case apperror.KindNotFound:
		prefix = "🔍 Не найдено:"
	case apperror.KindForbidden:
		prefix = "🚫 Доступ запрещен:"
	}
	return fmt.Sprintf("%s %s", prefix, e.Message)
}

func clock(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.Format("15:04")
}

func minutes(m *int) string {
	if m == nil {
		return "—"
	}
	return fmt.Sprintf("%d мин", *m)
}

func formatSession(v attendance.SessionView) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("🩺 Визит #%d (прием %d), %s", v.ID, v.AppointmentID, v.ScheduledDate))
	lines = append(lines, fmt.Sprintf("📌 Статус: %s", sessionStatusNames[v.Status]))

	if v.TherapistReachedTime != nil || v.TherapistLeavingTime != nil || v.TherapistDurationMinutes != nil {
		lines = append(lines, fmt.Sprintf("👩‍⚕️ Терапевт: %s–%s (%s)",
			clock(v.TherapistReachedTime), clock(v.TherapistLeavingTime), minutes(v.TherapistDurationMinutes)))
	}
	if v.PatientConfirmedArrival != nil || v.PatientConfirmedDeparture != nil || v.PatientConfirmedDurationMinutes != nil {
		lines = append(lines, fmt.Sprintf("🧑 Пациент: %s–%s (%s)",
			clock(v.PatientConfirmedArrival), clock(v.PatientConfirmedDeparture), minutes(v.PatientConfirmedDurationMinutes)))
	}
	if v.AwaitingPatientConfirmation {
		lines = append(lines, "⏳ Ожидает подтверждения пациента")
	}
	if v.HasDiscrepancy != nil && *v.HasDiscrepancy {
		state := "открыто"
		if v.DiscrepancyResolved != nil && *v.DiscrepancyResolved {
			state = "закрыто"
		}
		lines = append(lines, fmt.Sprintf("⚠️ Расхождение: %d мин (%s)", *v.DiscrepancyMinutes, state))
	}
	return strings.Join(lines, "\n")
}

func formatDay(rec models.AttendanceDayRecord) string {
	line := fmt.Sprintf("%s %s", rec.Date, dayStatusNames[rec.Status])

	var marks []string
	if rec.SessionCount > 0 {
		marks = append(marks, fmt.Sprintf("визитов: %d", rec.SessionCount))
	}
	if rec.IsSubmitted() && !rec.IsApproved {
		marks = append(marks, "не утвержден")
	}
	if rec.PendingRequestID != nil {
		marks = append(marks, "заявка #"+strconv.FormatUint(uint64(*rec.PendingRequestID), 10))
	}
	if rec.UnresolvedDiscrepancies > 0 {
		marks = append(marks, fmt.Sprintf("расхождений: %d", rec.UnresolvedDiscrepancies))
	} else if rec.HasDiscrepancy {
		marks = append(marks, "расхождение закрыто")
	}

	if len(marks) > 0 {
		line += " (" + strings.Join(marks, ", ") + ")"
	}
	return line
}

func formatSummary(s *models.MonthlyAttendanceSummary) string {
	return fmt.Sprintf(`📊 Итоги %02d.%d:
📅 Рабочих дней: %d, с визитами: %d
✅ Отработано дней: %d
⏳ Не отмечено: %d, ждут решения: %d, не утверждено: %d
🩺 Визитов: %d (завершено %d)
⏱ Минуты терапевта: %d, подтверждено пациентами: %d
⚠️ Расхождений: %d (открыто %d)`,
		s.Month, s.Year,
		s.WorkingDays, s.AppointmentDays,
		s.AttendedDays,
		s.UnmarkedDays, s.PendingDays, s.UnapprovedDays,
		s.Sessions, s.CompletedSessions,
		s.TherapistMinutes, s.PatientMinutes,
		s.Discrepancies, s.UnresolvedDiscrepancies)
}

func parseID(value string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("invalid_id", "некорректный номер %q", value)
	}
	return uint(id), nil
}

// parseMonth разбирает "ГГГГ-ММ", пустое значение дает месяц now
func parseMonth(value string, now time.Time) (int, int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return now.Year(), int(now.Month()), nil
	}
	t, err := time.Parse("2006-01", value)
	if err != nil {
		return 0, 0, apperror.Validation("invalid_month", "месяц в формате ГГГГ-ММ, получено %q", value)
	}
	return t.Year(), int(t.Month()), nil
}
