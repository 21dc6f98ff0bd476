package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"session-attendance-bot/internal/apperror"
	"session-attendance-bot/internal/models"
)

var today = time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC)

func dayCtx(offset int, booked bool) DayContext {
	return DayContext{
		Date:            today.AddDate(0, 0, offset),
		Today:           today,
		HasAppointments: booked,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		ctx  DayContext
		want DayClass
	}{
		{dayCtx(-1, true), ClassPastBooked},
		{dayCtx(-1, false), ClassPastFree},
		{dayCtx(0, true), ClassTodayBooked},
		{dayCtx(0, false), ClassTodayFree},
		{dayCtx(2, true), ClassFutureBooked},
		{dayCtx(2, false), ClassFutureFree},
		{DayContext{Date: today, Today: today, Holiday: true, Weekend: true}, ClassHoliday},
		{DayContext{Date: today, Today: today, Weekend: true}, ClassWeekend},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.ctx))
	}
}

func TestValidate_AttendanceStatusesByAppointments(t *testing.T) {
	booked := dayCtx(0, true)
	free := dayCtx(0, false)

	for _, s := range []models.DayStatus{models.DayPresent, models.DayAbsent, models.DayHalfDay, models.DaySickLeave, models.DayEmergencyLeave} {
		assert.NoError(t, Validate(booked, Submission{Action: ActionSubmitAttendance, Status: s}), s)
		assert.True(t, apperror.IsValidation(Validate(free, Submission{Action: ActionSubmitAttendance, Status: s})), s)
	}

	for _, s := range []models.DayStatus{models.DayAvailable, models.DayFreeDay} {
		err := Validate(booked, Submission{Action: ActionSubmitAttendance, Status: s})
		assert.True(t, apperror.IsValidation(err), s)
		e, _ := apperror.As(err)
		assert.Equal(t, "appointments_forbid_availability", e.Rule)
	}

	assert.NoError(t, Validate(free, Submission{Action: ActionSubmitAttendance, Status: models.DayAvailable}))
	assert.True(t, apperror.IsValidation(Validate(free, Submission{Action: ActionSubmitAttendance, Status: models.DayFreeDay})))
	assert.True(t, apperror.IsValidation(Validate(booked, Submission{Action: ActionSubmitAttendance, Status: "bogus"})))
}

func TestValidate_Availability(t *testing.T) {
	assert.NoError(t, Validate(dayCtx(0, false), Submission{Action: ActionSubmitAvailability}))
	assert.NoError(t, Validate(dayCtx(-3, false), Submission{Action: ActionSubmitAvailability}))
	assert.True(t, apperror.IsValidation(Validate(dayCtx(0, true), Submission{Action: ActionSubmitAvailability})))
	assert.True(t, apperror.IsValidation(Validate(dayCtx(1, false), Submission{Action: ActionSubmitAvailability})))
}

func TestValidate_CalendarDaysLocked(t *testing.T) {
	holiday := DayContext{Date: today, Today: today, Holiday: true, HasAppointments: true}
	weekend := DayContext{Date: today, Today: today, Weekend: true}

	for _, action := range []Action{ActionSubmitAttendance, ActionSubmitAvailability, ActionApplyLeave, ActionRecordCancellation} {
		assert.True(t, apperror.IsImmutable(Validate(holiday, Submission{Action: action, Status: models.DayPresent, Reason: "x"})), action)
		assert.True(t, apperror.IsImmutable(Validate(weekend, Submission{Action: action, Status: models.DayAvailable, Reason: "x"})), action)
	}

	assert.NoError(t, Validate(holiday, Submission{Action: ActionTrackSession}))
	assert.True(t, apperror.IsValidation(Validate(weekend, Submission{Action: ActionTrackSession})))
}

func TestValidate_FutureDates(t *testing.T) {
	future := dayCtx(2, true)

	err := Validate(future, Submission{Action: ActionSubmitAttendance, Status: models.DaySickLeave})
	assert.True(t, apperror.IsValidation(err))
	e, _ := apperror.As(err)
	assert.Equal(t, "sick_or_emergency_leave_not_in_future", e.Rule)

	err = Validate(future, Submission{Action: ActionSubmitAttendance, Status: models.DayPresent})
	e, _ = apperror.As(err)
	assert.Equal(t, "future_date_requires_leave", e.Rule)

	assert.NoError(t, Validate(future, Submission{Action: ActionApplyLeave, LeaveType: models.DayApprovedLeave, Reason: "family"}))
	assert.True(t, apperror.IsValidation(Validate(future, Submission{Action: ActionApplyLeave, LeaveType: models.DaySickLeave, Reason: "flu"})))
	assert.True(t, apperror.IsValidation(Validate(future, Submission{Action: ActionApplyLeave, LeaveType: models.DayApprovedLeave})), "reason required")

	assert.NoError(t, Validate(future, Submission{Action: ActionRecordCancellation, Reason: "patient travelling"}))
	assert.True(t, apperror.IsValidation(Validate(dayCtx(2, false), Submission{Action: ActionRecordCancellation, Reason: "x"})))
}

func TestValidate_LeaveNotForToday(t *testing.T) {
	err := Validate(dayCtx(0, true), Submission{Action: ActionApplyLeave, LeaveType: models.DayApprovedLeave, Reason: "x"})
	assert.True(t, apperror.IsValidation(err))
	assert.True(t, apperror.IsValidation(Validate(dayCtx(-1, true), Submission{Action: ActionRecordCancellation, Reason: "x"})))
}

func TestValidate_TrackSession(t *testing.T) {
	err := Validate(dayCtx(0, false), Submission{Action: ActionTrackSession})
	assert.True(t, apperror.IsValidation(err))
	e, _ := apperror.As(err)
	assert.Equal(t, "session_requires_appointment", e.Rule)

	assert.NoError(t, Validate(dayCtx(0, true), Submission{Action: ActionTrackSession}))

	for _, offset := range []int{-1, 6} {
		err = Validate(dayCtx(offset, true), Submission{Action: ActionTrackSession})
		assert.True(t, apperror.IsValidation(err), offset)
		e, _ = apperror.As(err)
		assert.Equal(t, "session_not_today", e.Rule)
	}

	holiday := DayContext{Date: today.AddDate(0, 0, 3), Today: today, Holiday: true, HasAppointments: true}
	err = Validate(holiday, Submission{Action: ActionTrackSession})
	e, _ = apperror.As(err)
	assert.Equal(t, "session_not_today", e.Rule)
}

func TestValidate_Conflicts(t *testing.T) {
	submitted := time.Date(2026, time.October, 14, 18, 0, 0, 0, time.UTC)
	ctx := dayCtx(0, true)
	ctx.Current = &models.AttendanceDayRecord{Status: models.DayPresent, SubmittedAt: &submitted}

	assert.True(t, apperror.IsConflict(Validate(ctx, Submission{Action: ActionSubmitAttendance, Status: models.DayPresent})))
	// нарушение правила дня важнее дубля
	assert.True(t, apperror.IsValidation(Validate(ctx, Submission{Action: ActionSubmitAttendance, Status: models.DayAvailable})))

	pending := dayCtx(3, true)
	pending.HasPendingRequest = true
	assert.True(t, apperror.IsConflict(Validate(pending, Submission{Action: ActionApplyLeave, LeaveType: models.DayApprovedLeave, Reason: "x"})))
	assert.True(t, apperror.IsConflict(Validate(pending, Submission{Action: ActionRecordCancellation, Reason: "x"})))
}

func TestValidate_UnknownAction(t *testing.T) {
	assert.True(t, apperror.IsValidation(Validate(dayCtx(0, true), Submission{Action: "teleport"})))
}
