package models

import "time"

type DayStatus string

// Статусы дня терапевта
const (
	DayUpcoming       DayStatus = "upcoming"
	DayPresent        DayStatus = "present"
	DayAbsent         DayStatus = "absent"
	DayHalfDay        DayStatus = "half_day"
	DayApprovedLeave  DayStatus = "approved_leave"
	DaySickLeave      DayStatus = "sick_leave"
	DayEmergencyLeave DayStatus = "emergency_leave"
	DayAvailable      DayStatus = "available"
	DayFreeDay        DayStatus = "free_day"
	DayHoliday        DayStatus = "holiday"
	DayWeekend        DayStatus = "weekend"
)

// AllDayStatuses все известные статусы дня
var AllDayStatuses = []DayStatus{
	DayUpcoming, DayPresent, DayAbsent, DayHalfDay, DayApprovedLeave,
	DaySickLeave, DayEmergencyLeave, DayAvailable, DayFreeDay, DayHoliday, DayWeekend,
}

// IsValid проверяет, что статус известен
func (s DayStatus) IsValid() bool {
	for _, v := range AllDayStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// SelfCertified статус не требует утверждения администратором
func (s DayStatus) SelfCertified() bool {
	return s == DayPresent || s == DayAvailable
}

// IsLeave отпуск, больничный или экстренный отгул
func (s DayStatus) IsLeave() bool {
	return s == DayApprovedLeave || s == DaySickLeave || s == DayEmergencyLeave
}

// IsCalendar статус задан календарем и не меняется отправками
func (s DayStatus) IsCalendar() bool {
	return s == DayHoliday || s == DayWeekend
}

// AttendanceDayRecord итоговый статус одного терапевта за один календарный день
type AttendanceDayRecord struct {
	ID               uint       `gorm:"primarykey" json:"id"`
	TherapistID      uint       `gorm:"not null;uniqueIndex:idx_attendance_therapist_date" json:"therapist_id"`
	Date             string     `gorm:"type:varchar(10);not null;uniqueIndex:idx_attendance_therapist_date" json:"date"`
	Status           DayStatus  `gorm:"type:varchar(20);not null;default:'upcoming'" json:"status"`
	IsApproved       bool       `gorm:"not null;default:false" json:"is_approved"`
	ApprovedBy       *uint      `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	HasAppointments  bool       `gorm:"not null;default:false" json:"has_appointments"`
	SubmittedAt      *time.Time `json:"submitted_at"`
	Notes            string     `gorm:"type:text" json:"notes"`
	PendingRequestID *uint      `json:"pending_request_id,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Поля только для чтения, собираются из сессий дня
	SessionCount            int  `gorm:"-" json:"session_count"`
	HasDiscrepancy          bool `gorm:"-" json:"has_discrepancy"`
	UnresolvedDiscrepancies int  `gorm:"-" json:"unresolved_discrepancies"`
	TherapistMinutes        int  `gorm:"-" json:"therapist_minutes"`
	PatientMinutes          int  `gorm:"-" json:"patient_minutes"`
}

func (AttendanceDayRecord) TableName() string {
	return "attendance_day_records"
}

// IsSubmitted день уже получил явную отправку
func (r *AttendanceDayRecord) IsSubmitted() bool {
	return r.SubmittedAt != nil
}
