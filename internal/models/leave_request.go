package models

import "time"

type RequestKind string

const (
	RequestLeave               RequestKind = "leave"
	RequestPatientCancellation RequestKind = "patient_cancellation"
)

type RequestState string

const (
	RequestPending  RequestState = "pending"
	RequestApproved RequestState = "approved"
	RequestRejected RequestState = "rejected"
)

// LeaveRequest заявка на будущую дату: отпуск или отмена визитов пациентом.
// Статус дня меняется только после решения администратора.
type LeaveRequest struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	TherapistID uint         `gorm:"not null;index:idx_leave_therapist_date" json:"therapist_id"`
	Date        string       `gorm:"type:varchar(10);not null;index:idx_leave_therapist_date" json:"date"`
	Kind        RequestKind  `gorm:"type:varchar(30);not null" json:"kind"`
	LeaveType   DayStatus    `gorm:"type:varchar(20)" json:"leave_type,omitempty"`
	Reason      string       `gorm:"type:text;not null" json:"reason"`
	State       RequestState `gorm:"type:varchar(20);not null;default:'pending';index" json:"state"`
	IsApproved  bool         `gorm:"not null;default:false" json:"is_approved"`
	DecidedAt   *time.Time   `json:"decided_at"`
	DecidedBy   *uint        `json:"decided_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// IsPending заявка еще не рассмотрена
func (r *LeaveRequest) IsPending() bool {
	return r.State == RequestPending
}
