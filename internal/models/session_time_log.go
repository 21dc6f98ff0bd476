package models

import "time"

type SessionStatus string

// Статусы сессии визита
const (
	SessionScheduled        SessionStatus = "scheduled"         // Визит запланирован
	SessionTherapistReached SessionStatus = "therapist_reached" // Терапевт на месте
	SessionInProgress       SessionStatus = "in_progress"       // Пациент подтвердил приход
	SessionTherapistLeft    SessionStatus = "therapist_left"    // Терапевт ушел
	SessionCompleted        SessionStatus = "completed"         // Визит завершен, запись только для чтения
)

// Rank порядок статуса в жизненном цикле, статус только растет
func (s SessionStatus) Rank() int {
	switch s {
	case SessionScheduled:
		return 0
	case SessionTherapistReached:
		return 1
	case SessionInProgress:
		return 2
	case SessionTherapistLeft:
		return 3
	case SessionCompleted:
		return 4
	}
	return -1
}

// SessionTimeLog учет одного визита терапевта к пациенту
type SessionTimeLog struct {
	ID            uint          `gorm:"primarykey" json:"id"`
	AppointmentID uint          `gorm:"not null;uniqueIndex" json:"appointment_id"`
	TherapistID   uint          `gorm:"not null;index:idx_session_therapist_date" json:"therapist_id"`
	PatientID     uint          `gorm:"not null;index" json:"patient_id"`
	ScheduledDate string        `gorm:"type:varchar(10);not null;index:idx_session_therapist_date" json:"scheduled_date"`
	Status        SessionStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	StatusRank    int           `gorm:"not null;default:0" json:"-"`

	// Отметки терапевта
	TherapistReachedTime *time.Time `json:"therapist_reached_time"`
	TherapistLeavingTime *time.Time `json:"therapist_leaving_time"`

	// Подтверждения пациента
	PatientConfirmedArrival   *time.Time `json:"patient_confirmed_arrival"`
	PatientConfirmedDeparture *time.Time `json:"patient_confirmed_departure"`

	// Вычисляемые показатели
	TherapistDurationMinutes        *int `json:"therapist_duration_minutes"`
	PatientConfirmedDurationMinutes *int `json:"patient_confirmed_duration_minutes"`

	// Расхождение
	HasDiscrepancy        bool       `gorm:"not null;default:false;index" json:"has_discrepancy"`
	DiscrepancyMinutes    int        `gorm:"not null;default:0" json:"discrepancy_minutes"`
	DiscrepancyResolved   bool       `gorm:"not null;default:false" json:"discrepancy_resolved"`
	DiscrepancyResolvedAt *time.Time `json:"discrepancy_resolved_at"`
	DiscrepancyResolvedBy *uint      `json:"discrepancy_resolved_by"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SessionTimeLog) TableName() string {
	return "session_time_logs"
}

// Clone возвращает глубокую копию, указатели не разделяются
func (l SessionTimeLog) Clone() SessionTimeLog {
	out := l
	out.TherapistReachedTime = cloneTime(l.TherapistReachedTime)
	out.TherapistLeavingTime = cloneTime(l.TherapistLeavingTime)
	out.PatientConfirmedArrival = cloneTime(l.PatientConfirmedArrival)
	out.PatientConfirmedDeparture = cloneTime(l.PatientConfirmedDeparture)
	out.TherapistDurationMinutes = cloneInt(l.TherapistDurationMinutes)
	out.PatientConfirmedDurationMinutes = cloneInt(l.PatientConfirmedDurationMinutes)
	out.DiscrepancyResolvedAt = cloneTime(l.DiscrepancyResolvedAt)
	if l.DiscrepancyResolvedBy != nil {
		v := *l.DiscrepancyResolvedBy
		out.DiscrepancyResolvedBy = &v
	}
	return out
}

// IsCompleted проверяет, завершен ли визит
func (l *SessionTimeLog) IsCompleted() bool {
	return l.Status == SessionCompleted
}

// TherapistPairComplete терапевт отметил и приход, и уход
func (l *SessionTimeLog) TherapistPairComplete() bool {
	return l.TherapistReachedTime != nil && l.TherapistLeavingTime != nil
}

// PatientPairComplete пациент подтвердил и приход, и уход
func (l *SessionTimeLog) PatientPairComplete() bool {
	return l.PatientConfirmedArrival != nil && l.PatientConfirmedDeparture != nil
}

// AwaitingPatientConfirmation терапевт закрыл визит, а пациент еще нет.
// Это отдельное состояние, а не расхождение.
func (l *SessionTimeLog) AwaitingPatientConfirmation() bool {
	return l.TherapistPairComplete() && !l.PatientPairComplete()
}

// ActiveDiscrepancy расхождение есть и администратор его еще не закрыл
func (l *SessionTimeLog) ActiveDiscrepancy() bool {
	return l.HasDiscrepancy && !l.DiscrepancyResolved
}

// DurationMinutes целые минуты между отметками, дробная часть отбрасывается
func DurationMinutes(from, to time.Time) int {
	return int(to.Sub(from).Minutes())
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
