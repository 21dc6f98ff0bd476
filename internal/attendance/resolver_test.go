package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"session-attendance-bot/internal/models"
)

func intPtr(v int) *int { return &v }

func TestResolve_NoSubmission(t *testing.T) {
	r := NewResolver(testPolicy())

	rec := r.Resolve(DayInput{TherapistID: 1, Date: today, Sessions: []models.SessionTimeLog{{ID: 1}}})
	assert.Equal(t, models.DayUpcoming, rec.Status)
	assert.True(t, rec.HasAppointments)
	assert.Nil(t, rec.SubmittedAt)

	rec = r.Resolve(DayInput{TherapistID: 1, Date: today})
	assert.Equal(t, models.DayFreeDay, rec.Status)
	assert.False(t, rec.HasAppointments)
	assert.Equal(t, "2026-10-14", rec.Date)
}

func TestResolve_CalendarOverrides(t *testing.T) {
	r := NewResolver(testPolicy())
	submitted := today.Add(10 * time.Hour)
	stored := &models.AttendanceDayRecord{Status: models.DayPresent, SubmittedAt: &submitted, IsApproved: true}

	rec := r.Resolve(DayInput{TherapistID: 1, Date: today, Holiday: true, Stored: stored, Sessions: []models.SessionTimeLog{{ID: 1}}})
	assert.Equal(t, models.DayHoliday, rec.Status)

	sunday := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)
	rec = r.Resolve(DayInput{TherapistID: 1, Date: sunday, Stored: stored})
	assert.Equal(t, models.DayWeekend, rec.Status)
	assert.Nil(t, rec.SubmittedAt)
}

func TestResolve_SubmissionMustMatchAppointments(t *testing.T) {
	r := NewResolver(testPolicy())
	submitted := today.Add(10 * time.Hour)

	available := &models.AttendanceDayRecord{Status: models.DayAvailable, SubmittedAt: &submitted, IsApproved: true}
	rec := r.Resolve(DayInput{TherapistID: 1, Date: today, Stored: available, Sessions: []models.SessionTimeLog{{ID: 1}}})
	assert.Equal(t, models.DayUpcoming, rec.Status, "appointments supersede availability")
	assert.False(t, rec.IsApproved)

	present := &models.AttendanceDayRecord{Status: models.DayPresent, SubmittedAt: &submitted, IsApproved: true}
	rec = r.Resolve(DayInput{TherapistID: 1, Date: today, Stored: present})
	assert.Equal(t, models.DayFreeDay, rec.Status)

	rec = r.Resolve(DayInput{TherapistID: 1, Date: today, Stored: present, Sessions: []models.SessionTimeLog{{ID: 1}}})
	assert.Equal(t, models.DayPresent, rec.Status)
	assert.True(t, rec.IsApproved)

	for _, status := range []models.DayStatus{models.DayApprovedLeave, models.DaySickLeave, models.DayEmergencyLeave} {
		leave := &models.AttendanceDayRecord{Status: status, SubmittedAt: &submitted}
		rec = r.Resolve(DayInput{TherapistID: 1, Date: today, Stored: leave})
		assert.Equal(t, status, rec.Status, "leave holds without appointments")
		rec = r.Resolve(DayInput{TherapistID: 1, Date: today, Stored: leave, Sessions: []models.SessionTimeLog{{ID: 1}}})
		assert.Equal(t, status, rec.Status, "leave holds with appointments")
	}
}

func TestResolve_Requests(t *testing.T) {
	r := NewResolver(testPolicy())
	future := today.AddDate(0, 0, 2)

	rec := r.Resolve(DayInput{TherapistID: 1, Date: future, Sessions: []models.SessionTimeLog{{ID: 1}},
		Requests: []models.LeaveRequest{{ID: 7, State: models.RequestPending, Kind: models.RequestLeave}}})
	assert.Equal(t, models.DayUpcoming, rec.Status)
	require.NotNil(t, rec.PendingRequestID)
	assert.Equal(t, uint(7), *rec.PendingRequestID)

	rec = r.Resolve(DayInput{TherapistID: 1, Date: future,
		Requests: []models.LeaveRequest{{ID: 7, State: models.RequestApproved, Kind: models.RequestLeave, CreatedAt: today}}})
	assert.Equal(t, models.DayApprovedLeave, rec.Status)
	assert.True(t, rec.IsApproved)
	assert.NotNil(t, rec.SubmittedAt)

	rec = r.Resolve(DayInput{TherapistID: 1, Date: future, Sessions: []models.SessionTimeLog{{ID: 1}},
		Requests: []models.LeaveRequest{{ID: 7, State: models.RequestRejected, Kind: models.RequestPatientCancellation}}})
	assert.Equal(t, models.DayUpcoming, rec.Status)
	assert.Nil(t, rec.PendingRequestID)
}

func TestResolve_DiscrepancyHistory(t *testing.T) {
	r := NewResolver(testPolicy())
	sessions := []models.SessionTimeLog{
		{ID: 1, HasDiscrepancy: true, DiscrepancyResolved: true, TherapistDurationMinutes: intPtr(65), PatientConfirmedDurationMinutes: intPtr(40)},
		{ID: 2, TherapistDurationMinutes: intPtr(30)},
	}

	rec := r.Resolve(DayInput{TherapistID: 1, Date: today, Sessions: sessions})
	assert.True(t, rec.HasDiscrepancy, "resolved discrepancy remains in history")
	assert.Equal(t, 0, rec.UnresolvedDiscrepancies)
	assert.Equal(t, 2, rec.SessionCount)

	sessions[1].HasDiscrepancy = true
	rec = r.Resolve(DayInput{TherapistID: 1, Date: today, Sessions: sessions})
	assert.Equal(t, 1, rec.UnresolvedDiscrepancies)
	assert.Equal(t, 95, rec.TherapistMinutes)
	assert.Equal(t, 40, rec.PatientMinutes)
}

func TestResolve_Idempotent(t *testing.T) {
	r := NewResolver(testPolicy())
	in := DayInput{TherapistID: 1, Date: today, Sessions: []models.SessionTimeLog{{ID: 1}}}

	first := r.Resolve(in)
	stored := first
	in.Stored = &stored
	assert.Equal(t, first, r.Resolve(in))
}

func TestSummarize(t *testing.T) {
	r := NewResolver(testPolicy())
	submitted := today.Add(9 * time.Hour)

	var days []models.AttendanceDayRecord
	for _, d := range MonthDays(2026, 10, time.UTC) {
		in := DayInput{TherapistID: 1, Date: d}
		switch d.Day() {
		case 1:
			in.Holiday = true
		case 13:
			in.Sessions = []models.SessionTimeLog{{ID: 1}}
			in.Stored = &models.AttendanceDayRecord{Status: models.DayPresent, SubmittedAt: &submitted, IsApproved: true}
		case 12:
			in.Sessions = []models.SessionTimeLog{{ID: 2}}
		case 20:
			in.Sessions = []models.SessionTimeLog{{ID: 3}}
			in.Stored = &models.AttendanceDayRecord{Status: models.DaySickLeave, SubmittedAt: &submitted}
		}
		days = append(days, r.Resolve(in))
	}
	require.Len(t, days, 31)

	sessions := []models.SessionTimeLog{
		{ID: 1, Status: models.SessionCompleted, TherapistDurationMinutes: intPtr(60), PatientConfirmedDurationMinutes: intPtr(40), HasDiscrepancy: true},
		{ID: 2},
	}
	s := Summarize(1, 2026, 10, days, sessions, today)

	// октябрь 2026: 4 воскресенья + 1 праздник
	assert.Equal(t, 26, s.WorkingDays)
	assert.Equal(t, 1, s.StatusCounts[models.DayHoliday])
	assert.Equal(t, 4, s.StatusCounts[models.DayWeekend])
	assert.Equal(t, 1, s.AttendedDays)
	assert.Equal(t, 1, s.UnmarkedDays)
	assert.Equal(t, 1, s.UnapprovedDays)
	assert.Equal(t, 3, s.AppointmentDays)
	assert.Equal(t, 2, s.Sessions)
	assert.Equal(t, 1, s.CompletedSessions)
	assert.Equal(t, 20, s.UnconfirmedMinutes)
	assert.Equal(t, 1, s.UnresolvedDiscrepancies)
}
