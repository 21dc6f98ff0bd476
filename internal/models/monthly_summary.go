package models

// MonthlyAttendanceSummary сводка посещаемости терапевта за месяц
type MonthlyAttendanceSummary struct {
	TherapistID uint `json:"therapist_id"`
	Year        int  `json:"year"`
	Month       int  `json:"month"`

	// Плановые показатели
	WorkingDays     int `json:"working_days"`
	AppointmentDays int `json:"appointment_days"`

	// Фактические показатели
	StatusCounts   map[DayStatus]int `json:"status_counts"`
	AttendedDays   int               `json:"attended_days"` // present + half_day
	UnmarkedDays   int               `json:"unmarked_days"` // upcoming в прошлом
	PendingDays    int               `json:"pending_days"`  // есть нерассмотренная заявка
	UnapprovedDays int               `json:"unapproved_days"`

	Sessions                int `json:"sessions"`
	CompletedSessions       int `json:"completed_sessions"`
	TherapistMinutes        int `json:"therapist_minutes"`
	PatientMinutes          int `json:"patient_minutes"`
	Discrepancies           int `json:"discrepancies"`
	UnresolvedDiscrepancies int `json:"unresolved_discrepancies"`

	// Разница между минутами терапевта и подтвержденными пациентом
	UnconfirmedMinutes int `json:"unconfirmed_minutes"`
}

// CalculateStats пересчитывает производные показатели
func (s *MonthlyAttendanceSummary) CalculateStats() {
	s.AttendedDays = s.StatusCounts[DayPresent] + s.StatusCounts[DayHalfDay]
	diff := s.TherapistMinutes - s.PatientMinutes
	if diff > 0 {
		s.UnconfirmedMinutes = diff
	} else {
		s.UnconfirmedMinutes = 0
	}
}
