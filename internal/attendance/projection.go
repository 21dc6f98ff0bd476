package attendance

import (
	"time"

	"session-attendance-bot/internal/models"
)

// SessionView проекция SessionTimeLog для конкретной роли.
// Поля, невидимые роли, остаются nil и не попадают в JSON.
type SessionView struct {
	ID                          uint                 `json:"id"`
	AppointmentID               uint                 `json:"appointment_id"`
	TherapistID                 uint                 `json:"therapist_id"`
	PatientID                   uint                 `json:"patient_id"`
	ScheduledDate               string               `json:"scheduled_date"`
	Status                      models.SessionStatus `json:"status"`
	AwaitingPatientConfirmation bool                 `json:"awaiting_patient_confirmation"`

	TherapistReachedTime     *time.Time `json:"therapist_reached_time,omitempty"`
	TherapistLeavingTime     *time.Time `json:"therapist_leaving_time,omitempty"`
	TherapistDurationMinutes *int       `json:"therapist_duration_minutes,omitempty"`

	PatientConfirmedArrival         *time.Time `json:"patient_confirmed_arrival,omitempty"`
	PatientConfirmedDeparture       *time.Time `json:"patient_confirmed_departure,omitempty"`
	PatientConfirmedDurationMinutes *int       `json:"patient_confirmed_duration_minutes,omitempty"`

	HasDiscrepancy      *bool `json:"has_discrepancy,omitempty"`
	DiscrepancyMinutes  *int  `json:"discrepancy_minutes,omitempty"`
	DiscrepancyResolved *bool `json:"discrepancy_resolved,omitempty"`
}

// Project строит проекцию: терапевт видит свои отметки, пациент свои,
// администратор все, включая расхождения.
func Project(log models.SessionTimeLog, role models.Role) SessionView {
	log = log.Clone()
	view := SessionView{
		ID:                          log.ID,
		AppointmentID:               log.AppointmentID,
		TherapistID:                 log.TherapistID,
		PatientID:                   log.PatientID,
		ScheduledDate:               log.ScheduledDate,
		Status:                      log.Status,
		AwaitingPatientConfirmation: log.AwaitingPatientConfirmation(),
	}

	if role == models.RoleTherapist || role == models.RoleAdmin {
		view.TherapistReachedTime = log.TherapistReachedTime
		view.TherapistLeavingTime = log.TherapistLeavingTime
		view.TherapistDurationMinutes = log.TherapistDurationMinutes
	}
	if role == models.RolePatient || role == models.RoleAdmin {
		view.PatientConfirmedArrival = log.PatientConfirmedArrival
		view.PatientConfirmedDeparture = log.PatientConfirmedDeparture
		view.PatientConfirmedDurationMinutes = log.PatientConfirmedDurationMinutes
	}
	if role == models.RoleAdmin {
		has, minutes, resolved := log.HasDiscrepancy, log.DiscrepancyMinutes, log.DiscrepancyResolved
		view.HasDiscrepancy = &has
		view.DiscrepancyMinutes = &minutes
		view.DiscrepancyResolved = &resolved
	}
	return view
}

// ProjectAll проекция списка
func ProjectAll(logs []models.SessionTimeLog, role models.Role) []SessionView {
	views := make([]SessionView, 0, len(logs))
	for i := range logs {
		views = append(views, Project(logs[i], role))
	}
	return views
}
