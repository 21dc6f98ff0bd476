package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"session-attendance-bot/internal/apperror"
	"session-attendance-bot/internal/models"
)

func TestAttendance_SubmitOnAppointmentDay(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	env.schedule(t, 100, day(14))

	_, err := env.attendance.SubmitAttendance(env.therapist, day(14), models.DayAvailable, "")
	assert.True(t, apperror.IsValidation(err), "appointments forbid availability")
	_, err = env.attendance.SubmitAvailability(env.therapist, day(14), "")
	assert.True(t, apperror.IsValidation(err))

	rec, err := env.attendance.SubmitAttendance(env.therapist, day(14), models.DayPresent, "все визиты")
	require.NoError(t, err)
	assert.Equal(t, models.DayPresent, rec.Status)
	assert.True(t, rec.IsApproved, "present is self-certified")
	assert.NotNil(t, rec.SubmittedAt)

	_, err = env.attendance.SubmitAttendance(env.therapist, day(14), models.DayAbsent, "")
	assert.True(t, apperror.IsConflict(err))

	_, err = env.attendance.SubmitAttendance(env.patient, day(14), models.DayPresent, "")
	assert.True(t, apperror.IsForbidden(err))
}

func TestAttendance_FreeDay(t *testing.T) {
	env := newTestEnv(t, testPolicy())

	_, err := env.attendance.SubmitAttendance(env.therapist, day(13), models.DayPresent, "")
	assert.True(t, apperror.IsValidation(err), "free day never accepts present")

	rec, err := env.attendance.SubmitAvailability(env.therapist, day(13), "")
	require.NoError(t, err)
	assert.Equal(t, models.DayAvailable, rec.Status)
	assert.True(t, rec.IsApproved)

	_, err = env.attendance.SubmitAvailability(env.therapist, day(13), "")
	assert.True(t, apperror.IsConflict(err))
}

func TestAttendance_AvailabilitySupersededByAppointment(t *testing.T) {
	env := newTestEnv(t, testPolicy())

	_, err := env.attendance.SubmitAvailability(env.therapist, day(14), "")
	require.NoError(t, err)
	env.schedule(t, 100, day(14))

	days, err := env.attendance.GetMonthAttendance(env.therapist, env.therapist.ID, 2026, 10)
	require.NoError(t, err)
	assert.Equal(t, models.DayUpcoming, days[13].Status)

	rec, err := env.attendance.SubmitAttendance(env.therapist, day(14), models.DayHalfDay, "")
	require.NoError(t, err)
	assert.Equal(t, models.DayHalfDay, rec.Status)
	assert.False(t, rec.IsApproved)

	_, err = env.attendance.SubmitAttendance(env.therapist, day(14), models.DayPresent, "")
	assert.True(t, apperror.IsConflict(err), "superseded day is resubmitted once")

	approved, err := env.attendance.ApproveAttendance(env.admin, env.therapist.ID, day(14))
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)
	_, err = env.attendance.ApproveAttendance(env.admin, env.therapist.ID, day(14))
	assert.True(t, apperror.IsConflict(err))

	days, err = env.attendance.GetMonthAttendance(env.therapist, env.therapist.ID, 2026, 10)
	require.NoError(t, err)
	assert.Equal(t, models.DayHalfDay, days[13].Status)
	assert.True(t, days[13].IsApproved)
}

func TestAttendance_CalendarDays(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	require.NoError(t, env.holidays.ReplaceYear(2026, []models.NonWorkingDay{{Date: "2026-10-14", Year: 2026, Month: 10, Day: 14}}))
	env.schedule(t, 100, day(14))

	_, err := env.attendance.SubmitAttendance(env.therapist, day(14), models.DayPresent, "")
	assert.True(t, apperror.IsImmutable(err))

	_, err = env.attendance.SubmitAvailability(env.therapist, day(11), "")
	assert.True(t, apperror.IsImmutable(err), "sunday is a weekend")

	days, err := env.attendance.GetMonthAttendance(env.admin, env.therapist.ID, 2026, 10)
	require.NoError(t, err)
	assert.Equal(t, models.DayHoliday, days[13].Status)
	assert.True(t, days[13].HasAppointments)
	assert.Equal(t, models.DayWeekend, days[10].Status)

	// визит в праздник все равно учитывается
	_, err = env.sessions.TherapistMarkReached(env.therapist, 1)
	assert.NoError(t, err)
}

func TestAttendance_FutureLeave(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	env.schedule(t, 100, day(16))

	_, err := env.attendance.SubmitAttendance(env.therapist, day(16), models.DaySickLeave, "")
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, "sick_or_emergency_leave_not_in_future", ruleOf(t, err))

	req, err := env.attendance.ApplyForLeave(env.therapist, day(16), models.DayApprovedLeave, "семейные обстоятельства")
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.State)
	assert.False(t, req.IsApproved)

	_, err = env.attendance.ApplyForLeave(env.therapist, day(16), models.DayApprovedLeave, "повтор")
	assert.True(t, apperror.IsConflict(err))

	days, err := env.attendance.GetMonthAttendance(env.therapist, env.therapist.ID, 2026, 10)
	require.NoError(t, err)
	assert.Equal(t, models.DayUpcoming, days[15].Status)
	require.NotNil(t, days[15].PendingRequestID)
	assert.Equal(t, req.ID, *days[15].PendingRequestID)
	assert.False(t, days[15].IsApproved)

	_, err = env.attendance.DecideLeaveRequest(env.therapist, req.ID, true)
	assert.True(t, apperror.IsForbidden(err))

	decided, err := env.attendance.DecideLeaveRequest(env.admin, req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, decided.State)

	_, err = env.attendance.DecideLeaveRequest(env.admin, req.ID, false)
	assert.True(t, apperror.IsConflict(err))

	days, err = env.attendance.GetMonthAttendance(env.therapist, env.therapist.ID, 2026, 10)
	require.NoError(t, err)
	assert.Equal(t, models.DayApprovedLeave, days[15].Status)
	assert.True(t, days[15].IsApproved)
	assert.Nil(t, days[15].PendingRequestID)
	require.NotNil(t, days[15].ApprovedBy)
	assert.Equal(t, env.admin.ID, *days[15].ApprovedBy)
}

func TestAttendance_LeaveRules(t *testing.T) {
	env := newTestEnv(t, testPolicy())

	_, err := env.attendance.ApplyForLeave(env.therapist, day(14), models.DayApprovedLeave, "x")
	assert.True(t, apperror.IsValidation(err), "leave applications are for future dates")

	_, err = env.attendance.ApplyForLeave(env.therapist, day(20), models.DayApprovedLeave, " ")
	assert.True(t, apperror.IsValidation(err), "reason required")

	_, err = env.attendance.ApplyForLeave(env.therapist, day(18), models.DayApprovedLeave, "x")
	assert.True(t, apperror.IsImmutable(err), "weekend")

	req, err := env.attendance.ApplyForLeave(env.therapist, day(20), models.DayApprovedLeave, "отпуск")
	require.NoError(t, err)
	_, err = env.attendance.DecideLeaveRequest(env.admin, req.ID, false)
	require.NoError(t, err)

	days, err := env.attendance.GetMonthAttendance(env.therapist, env.therapist.ID, 2026, 10)
	require.NoError(t, err)
	assert.Equal(t, models.DayFreeDay, days[19].Status, "rejected leave reverts the day")
	assert.Nil(t, days[19].PendingRequestID)

	_, err = env.attendance.DecideLeaveRequest(env.admin, 999, true)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAttendance_PatientCancellation(t *testing.T) {
	env := newTestEnv(t, testPolicy())

	_, err := env.attendance.RecordPatientCancellation(env.therapist, day(16), "пациент уехал")
	assert.True(t, apperror.IsValidation(err), "nothing to cancel")

	env.schedule(t, 100, day(16))
	rec, err := env.attendance.RecordPatientCancellation(env.therapist, day(16), "пациент уехал")
	require.NoError(t, err)
	assert.Equal(t, models.DayUpcoming, rec.Status)
	require.NotNil(t, rec.PendingRequestID)
	assert.Nil(t, rec.SubmittedAt)

	_, err = env.attendance.RecordPatientCancellation(env.therapist, day(16), "снова")
	assert.True(t, apperror.IsConflict(err))

	pending, err := env.attendance.ListPendingRequests(env.admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.RequestPatientCancellation, pending[0].Kind)

	_, err = env.attendance.DecideLeaveRequest(env.admin, pending[0].ID, true)
	require.NoError(t, err)

	days, err := env.attendance.GetMonthAttendance(env.therapist, env.therapist.ID, 2026, 10)
	require.NoError(t, err)
	assert.Equal(t, models.DayApprovedLeave, days[15].Status)
	assert.True(t, days[15].IsApproved)
}

func TestAttendance_ApproveAttendance(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	env.schedule(t, 100, day(13))

	_, err := env.attendance.ApproveAttendance(env.admin, env.therapist.ID, day(13))
	assert.True(t, apperror.IsInvalidState(err), "nothing submitted yet")

	rec, err := env.attendance.SubmitAttendance(env.therapist, day(13), models.DayAbsent, "болел пациент")
	require.NoError(t, err)
	assert.False(t, rec.IsApproved)

	_, err = env.attendance.ApproveAttendance(env.therapist, env.therapist.ID, day(13))
	assert.True(t, apperror.IsForbidden(err))

	rec, err = env.attendance.ApproveAttendance(env.admin, env.therapist.ID, day(13))
	require.NoError(t, err)
	assert.True(t, rec.IsApproved)
	assert.NotNil(t, rec.ApprovedAt)

	_, err = env.attendance.ApproveAttendance(env.admin, env.therapist.ID, day(13))
	assert.True(t, apperror.IsConflict(err))

	_, err = env.attendance.ApproveAttendance(env.admin, env.therapist.ID, day(11))
	assert.True(t, apperror.IsImmutable(err))
}

func TestAttendance_MonthAccess(t *testing.T) {
	env := newTestEnv(t, testPolicy())

	_, err := env.attendance.GetMonthAttendance(env.patient, env.therapist.ID, 2026, 10)
	assert.True(t, apperror.IsForbidden(err))
	_, err = env.attendance.GetMonthAttendance(env.otherTherapist, env.therapist.ID, 2026, 10)
	assert.True(t, apperror.IsForbidden(err))
	_, err = env.attendance.GetMonthAttendance(env.therapist, env.therapist.ID, 2026, 13)
	assert.True(t, apperror.IsValidation(err))
}

func TestAttendance_MonthSummary(t *testing.T) {
	policy := testPolicy()
	policy.DiscrepancyThresholdMinutes = 10
	env := newTestEnv(t, policy)

	session := env.schedule(t, 100, day(14))
	env.schedule(t, 101, day(12))
	env.runScenario(t, session.ID)
	_, err := env.attendance.SubmitAttendance(env.therapist, day(14), models.DayPresent, "")
	require.NoError(t, err)

	summary, err := env.attendance.GetMonthSummary(env.therapist, env.therapist.ID, 2026, 10)
	require.NoError(t, err)
	assert.Equal(t, 27, summary.WorkingDays)
	assert.Equal(t, 2, summary.AppointmentDays)
	assert.Equal(t, 1, summary.AttendedDays)
	assert.Equal(t, 1, summary.UnmarkedDays)
	assert.Equal(t, 2, summary.Sessions)
	assert.Equal(t, 1, summary.CompletedSessions)
	assert.Equal(t, 65, summary.TherapistMinutes)
	assert.Equal(t, 50, summary.PatientMinutes)
	assert.Equal(t, 15, summary.UnconfirmedMinutes)
	assert.Equal(t, 1, summary.UnresolvedDiscrepancies)
}

func TestUserService(t *testing.T) {
	env := newTestEnv(t, testPolicy())

	user, err := env.userSvc.Register(50, "olga", "Ольга", "", models.RolePatient)
	require.NoError(t, err)
	assert.Equal(t, models.RolePatient, user.Role)

	_, err = env.userSvc.Register(50, "olga", "Ольга", "", models.RolePatient)
	assert.True(t, apperror.IsConflict(err))
	_, err = env.userSvc.Register(51, "", "Иван", "", models.RoleAdmin)
	assert.True(t, apperror.IsValidation(err))
	_, err = env.userSvc.Register(52, "", "", "", models.RoleTherapist)
	assert.True(t, apperror.IsValidation(err))

	admin, err := env.userSvc.EnsureAdmin(50, "")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	fresh, err := env.userSvc.EnsureAdmin(60, "Root")
	require.NoError(t, err)
	assert.Equal(t, "Root", fresh.FirstName)

	missing, err := env.userSvc.GetUser(70)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = env.userSvc.GetByID(999)
	assert.True(t, apperror.IsNotFound(err))

	assert.True(t, apperror.IsForbidden(env.userSvc.UpdateRole(env.therapist, user.ID, models.RoleAdmin)))
	assert.Contains(t, env.userSvc.FormatUserInfo(env.therapist), "Анна")
}

func TestNonWorkingDayService_LoadFromJSON(t *testing.T) {
	env := newTestEnv(t, testPolicy())
	svc := NewNonWorkingDayService(env.holidays, nil)

	path := filepath.Join(t.TempDir(), "2026.json")
	content := `{"year": 2026, "months": [{"month": 10, "days": "1,4,11,18,25"}, {"month": 11, "days": "3*,4"}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	count, err := svc.LoadFromJSON(path)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	holiday, err := svc.IsNonWorkingDay("2026-10-01")
	require.NoError(t, err)
	assert.True(t, holiday)

	november, err := svc.GetNonWorkingDaysForMonth(2026, 11)
	require.NoError(t, err)
	assert.Len(t, november, 1)

	days, err := env.attendance.GetMonthAttendance(env.therapist, env.therapist.ID, 2026, 10)
	require.NoError(t, err)
	assert.Equal(t, models.DayHoliday, days[0].Status)
}
