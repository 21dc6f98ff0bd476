package attendance

import (
	"strings"
	"time"

	"session-attendance-bot/internal/apperror"
	"session-attendance-bot/internal/models"
)

// DayClass класс дня для таблицы решений
type DayClass string

const (
	ClassHoliday      DayClass = "holiday"
	ClassWeekend      DayClass = "weekend"
	ClassPastBooked   DayClass = "past_booked"
	ClassTodayBooked  DayClass = "today_booked"
	ClassFutureBooked DayClass = "future_booked"
	ClassPastFree     DayClass = "past_free"
	ClassTodayFree    DayClass = "today_free"
	ClassFutureFree   DayClass = "future_free"
)

// Action действие, которое пытаются выполнить над днем
type Action string

const (
	ActionSubmitAttendance   Action = "submit_attendance"
	ActionSubmitAvailability Action = "submit_availability"
	ActionApplyLeave         Action = "apply_leave"
	ActionRecordCancellation Action = "record_cancellation"
	ActionTrackSession       Action = "track_session"
)

// DayContext все, что нужно знать о дне для проверки
type DayContext struct {
	Date            time.Time
	Today           time.Time
	Holiday         bool
	Weekend         bool
	HasAppointments bool

	// Current текущее разрешенное состояние дня, nil если записи еще нет
	Current *models.AttendanceDayRecord

	// HasPendingRequest на дату уже есть нерассмотренная заявка
	HasPendingRequest bool
}

// Submission то, что прислал терапевт
type Submission struct {
	Action    Action
	Status    models.DayStatus
	LeaveType models.DayStatus
	Reason    string
}

type rule struct {
	allow    bool
	statuses []models.DayStatus
	deny     func() *apperror.Error
}

var (
	bookedStatuses = []models.DayStatus{
		models.DayPresent, models.DayAbsent, models.DayHalfDay, models.DaySickLeave, models.DayEmergencyLeave,
	}
	freeStatuses = []models.DayStatus{models.DayAvailable}
	leaveTypes   = []models.DayStatus{models.DayApprovedLeave}
)

func allow() rule { return rule{allow: true} }

func allowStatuses(s ...models.DayStatus) rule { return rule{allow: true, statuses: s} }

func deny(kind apperror.Kind, name, msg string) rule {
	return rule{deny: func() *apperror.Error {
		return &apperror.Error{Kind: kind, Rule: name, Message: msg}
	}}
}

var (
	calendarLocked   = deny(apperror.KindImmutable, "calendar_day_locked", "holidays and weekends do not accept submissions")
	futureNeedsLeave = deny(apperror.KindValidation, "future_date_requires_leave", "future dates accept only leave applications or patient cancellations")
	bookedNoAvail    = deny(apperror.KindValidation, "appointments_forbid_availability", "a day with appointments cannot be marked available")
	leaveForFuture   = deny(apperror.KindValidation, "leave_application_future_only", "leave applications are for future dates; submit sick or emergency leave directly")
	cancelForFuture  = deny(apperror.KindValidation, "cancellation_future_only", "patient cancellations are recorded for future dates only")
	cancelNeedsAppt  = deny(apperror.KindValidation, "cancellation_requires_appointments", "there are no appointments to cancel on this date")
	noAppointments   = deny(apperror.KindValidation, "session_requires_appointment", "no session can be tracked on a day without appointments")
	sessionNotToday  = deny(apperror.KindValidation, "session_not_today", "a session can be tracked only on its scheduled date")
)

// decisionTable класс дня × действие
var decisionTable = map[DayClass]map[Action]rule{
	ClassHoliday: {
		ActionSubmitAttendance: calendarLocked, ActionSubmitAvailability: calendarLocked,
		ActionApplyLeave: calendarLocked, ActionRecordCancellation: calendarLocked,
	},
	ClassWeekend: {
		ActionSubmitAttendance: calendarLocked, ActionSubmitAvailability: calendarLocked,
		ActionApplyLeave: calendarLocked, ActionRecordCancellation: calendarLocked,
	},
	ClassPastBooked: {
		ActionSubmitAttendance: allowStatuses(bookedStatuses...), ActionSubmitAvailability: bookedNoAvail,
		ActionApplyLeave: leaveForFuture, ActionRecordCancellation: cancelForFuture, ActionTrackSession: sessionNotToday,
	},
	ClassTodayBooked: {
		ActionSubmitAttendance: allowStatuses(bookedStatuses...), ActionSubmitAvailability: bookedNoAvail,
		ActionApplyLeave: leaveForFuture, ActionRecordCancellation: cancelForFuture, ActionTrackSession: allow(),
	},
	ClassFutureBooked: {
		ActionSubmitAttendance: futureNeedsLeave, ActionSubmitAvailability: futureNeedsLeave,
		ActionApplyLeave: allowStatuses(leaveTypes...), ActionRecordCancellation: allow(), ActionTrackSession: sessionNotToday,
	},
	ClassPastFree: {
		ActionSubmitAttendance: allowStatuses(freeStatuses...), ActionSubmitAvailability: allow(),
		ActionApplyLeave: leaveForFuture, ActionRecordCancellation: cancelForFuture, ActionTrackSession: noAppointments,
	},
	ClassTodayFree: {
		ActionSubmitAttendance: allowStatuses(freeStatuses...), ActionSubmitAvailability: allow(),
		ActionApplyLeave: leaveForFuture, ActionRecordCancellation: cancelForFuture, ActionTrackSession: noAppointments,
	},
	ClassFutureFree: {
		ActionSubmitAttendance: futureNeedsLeave, ActionSubmitAvailability: futureNeedsLeave,
		ActionApplyLeave: allowStatuses(leaveTypes...), ActionRecordCancellation: cancelNeedsAppt, ActionTrackSession: noAppointments,
	},
}

// Classify определяет класс дня
func Classify(ctx DayContext) DayClass {
	if ctx.Holiday {
		return ClassHoliday
	}
	if ctx.Weekend {
		return ClassWeekend
	}

	day, today := models.DateKey(ctx.Date), models.DateKey(ctx.Today)
	switch {
	case day < today && ctx.HasAppointments:
		return ClassPastBooked
	case day < today:
		return ClassPastFree
	case day == today && ctx.HasAppointments:
		return ClassTodayBooked
	case day == today:
		return ClassTodayFree
	case ctx.HasAppointments:
		return ClassFutureBooked
	default:
		return ClassFutureFree
	}
}

// Validate проверяет отправку по таблице решений, затем дубли и обязательные поля.
// Возвращает ValidationError, ImmutableStateError или ConflictError.
func Validate(ctx DayContext, sub Submission) error {
	class := Classify(ctx)

	// Визит на праздник или выходной отмечается так же, как в рабочий день
	if sub.Action == ActionTrackSession && (class == ClassHoliday || class == ClassWeekend) {
		switch {
		case !ctx.HasAppointments:
			return withDay(noAppointments.deny(), ctx, class)
		case models.DateKey(ctx.Date) != models.DateKey(ctx.Today):
			return withDay(sessionNotToday.deny(), ctx, class)
		}
		return nil
	}

	r, ok := decisionTable[class][sub.Action]
	if !ok {
		return apperror.Validation("unknown_action", "unknown action %q", sub.Action)
	}
	if !r.allow {
		if sub.Action == ActionSubmitAttendance && (sub.Status == models.DaySickLeave || sub.Status == models.DayEmergencyLeave) &&
			(class == ClassFutureBooked || class == ClassFutureFree) {
			return withDay(apperror.Validation("sick_or_emergency_leave_not_in_future",
				"%s is allowed only for today or past dates", sub.Status), ctx, class)
		}
		return withDay(r.deny(), ctx, class)
	}

	switch sub.Action {
	case ActionSubmitAttendance:
		if err := checkStatus(ctx, class, sub.Status, r.statuses); err != nil {
			return err
		}
		return checkNotSubmitted(ctx)

	case ActionSubmitAvailability:
		return checkNotSubmitted(ctx)

	case ActionApplyLeave:
		if err := checkLeaveType(ctx, sub.LeaveType, r.statuses); err != nil {
			return err
		}
		if err := checkNoRequest(ctx); err != nil {
			return err
		}
		return requireReason(sub.Reason)

	case ActionRecordCancellation:
		if err := checkNoRequest(ctx); err != nil {
			return err
		}
		return requireReason(sub.Reason)
	}

	return nil
}

func checkStatus(ctx DayContext, class DayClass, status models.DayStatus, allowed []models.DayStatus) error {
	if !status.IsValid() {
		return apperror.Validation("unknown_status", "unknown attendance status %q", status)
	}
	if contains(allowed, status) {
		return nil
	}

	var err *apperror.Error
	switch {
	case ctx.HasAppointments && (status == models.DayAvailable || status == models.DayFreeDay):
		err = apperror.Validation("appointments_forbid_availability", "a day with appointments cannot be %s", status)
	case !ctx.HasAppointments && (status == models.DayPresent || status == models.DayAbsent || status == models.DayHalfDay):
		err = apperror.Validation("free_day_requires_availability", "a day without appointments cannot be %s", status)
	case !ctx.HasAppointments:
		err = apperror.Validation("free_day_requires_availability", "a day without appointments accepts only availability")
	default:
		err = apperror.Validation("status_not_submittable", "status %s cannot be submitted directly", status)
	}
	return withDay(err, ctx, class)
}

func checkLeaveType(ctx DayContext, leaveType models.DayStatus, allowed []models.DayStatus) error {
	if contains(allowed, leaveType) {
		return nil
	}
	if leaveType == models.DaySickLeave || leaveType == models.DayEmergencyLeave {
		return apperror.Validation("sick_or_emergency_leave_not_in_future",
			"%s is allowed only for today or past dates", leaveType).With("date", models.DateKey(ctx.Date))
	}
	return apperror.Validation("unknown_leave_type", "unknown leave type %q", leaveType)
}

func checkNotSubmitted(ctx DayContext) error {
	if ctx.Current != nil && ctx.Current.IsSubmitted() {
		return apperror.Conflict("day_already_submitted", "attendance for %s already submitted as %s",
			models.DateKey(ctx.Date), ctx.Current.Status).With("date", models.DateKey(ctx.Date))
	}
	if ctx.HasPendingRequest {
		return apperror.Conflict("request_already_pending", "a request for %s is awaiting decision",
			models.DateKey(ctx.Date)).With("date", models.DateKey(ctx.Date))
	}
	return nil
}

func checkNoRequest(ctx DayContext) error {
	if ctx.HasPendingRequest {
		return apperror.Conflict("request_already_pending", "a request for %s is awaiting decision",
			models.DateKey(ctx.Date)).With("date", models.DateKey(ctx.Date))
	}
	if ctx.Current != nil && ctx.Current.Status == models.DayApprovedLeave {
		return apperror.Conflict("day_already_submitted", "leave for %s already approved",
			models.DateKey(ctx.Date)).With("date", models.DateKey(ctx.Date))
	}
	return nil
}

func requireReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return apperror.Validation("reason_required", "reason is required")
	}
	return nil
}

func withDay(err *apperror.Error, ctx DayContext, class DayClass) *apperror.Error {
	return err.With("date", models.DateKey(ctx.Date)).With("day_class", string(class))
}

func contains(list []models.DayStatus, s models.DayStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
