package api

type ScheduleSessionRequest struct {
	AppointmentID uint   `json:"appointment_id" validate:"required"`
	TherapistID   uint   `json:"therapist_id" validate:"required"`
	PatientID     uint   `json:"patient_id" validate:"required"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
}

type AttendanceRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes" validate:"max=500"`
}

type AvailabilityRequest struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Notes string `json:"notes" validate:"max=500"`
}

type LeaveRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	LeaveType string `json:"leave_type" validate:"required"`
	Reason    string `json:"reason" validate:"required,max=500"`
}

type CancellationRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Reason string `json:"reason" validate:"required,max=500"`
}

type DecisionRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}
