// Package attendance содержит правила учета визитов и посещаемости терапевтов.
// Все команды здесь чистые функции: текущая запись и вход дают новую запись,
// исходное значение не изменяется.
package attendance

import (
	"strconv"
	"time"

	"session-attendance-bot/internal/apperror"
	"session-attendance-bot/internal/models"
)

// Engine применяет команды к SessionTimeLog по заданной политике
type Engine struct {
	policy   Policy
	detector Detector
}

func NewEngine(policy Policy) *Engine {
	return &Engine{
		policy:   policy,
		detector: Detector{ThresholdMinutes: policy.DiscrepancyThresholdMinutes},
	}
}

// Policy возвращает действующую политику
func (e *Engine) Policy() Policy {
	return e.policy
}

// NewSession создает запись для запланированного визита
func (e *Engine) NewSession(appointmentID, therapistID, patientID uint, date time.Time) (models.SessionTimeLog, error) {
	if appointmentID == 0 {
		return models.SessionTimeLog{}, apperror.Validation("appointment_required", "appointment id is required")
	}
	if therapistID == 0 || patientID == 0 {
		return models.SessionTimeLog{}, apperror.Validation("participants_required", "therapist and patient are required")
	}
	if date.IsZero() {
		return models.SessionTimeLog{}, apperror.Validation("date_required", "scheduled date is required")
	}

	return models.SessionTimeLog{
		AppointmentID: appointmentID,
		TherapistID:   therapistID,
		PatientID:     patientID,
		ScheduledDate: models.DateKey(date.In(e.policy.Zone())),
		Status:        models.SessionScheduled,
		StatusRank:    models.SessionScheduled.Rank(),
	}, nil
}

// TherapistMarkReached отмечает приход терапевта
func (e *Engine) TherapistMarkReached(log models.SessionTimeLog, now time.Time) (models.SessionTimeLog, error) {
	if err := e.ensureMutable(log); err != nil {
		return log, err
	}
	if log.TherapistReachedTime != nil {
		return log, conflict(log, "therapist_reached_already_recorded", "therapist arrival already recorded")
	}

	out := log.Clone()
	out.TherapistReachedTime = &now
	return e.finalize(out), nil
}

// TherapistMarkLeaving отмечает уход терапевта и считает длительность
func (e *Engine) TherapistMarkLeaving(log models.SessionTimeLog, now time.Time) (models.SessionTimeLog, error) {
	if err := e.ensureMutable(log); err != nil {
		return log, err
	}
	if log.TherapistReachedTime == nil {
		return log, invalid(log, "therapist_leaving_before_reached", "therapist arrival must be recorded before leaving")
	}
	if log.TherapistLeavingTime != nil {
		return log, conflict(log, "therapist_leaving_already_recorded", "therapist leaving already recorded")
	}
	if now.Before(*log.TherapistReachedTime) {
		return log, invalid(log, "therapist_leaving_precedes_arrival", "leaving time precedes recorded arrival")
	}

	out := log.Clone()
	out.TherapistLeavingTime = &now
	minutes := models.DurationMinutes(*out.TherapistReachedTime, now)
	out.TherapistDurationMinutes = &minutes
	return e.finalize(out), nil
}

// PatientConfirmArrival подтверждение прихода пациентом, не зависит от отметок терапевта
func (e *Engine) PatientConfirmArrival(log models.SessionTimeLog, now time.Time) (models.SessionTimeLog, error) {
	if err := e.ensureMutable(log); err != nil {
		return log, err
	}
	if log.PatientConfirmedArrival != nil {
		return log, conflict(log, "patient_arrival_already_confirmed", "patient arrival already confirmed")
	}

	out := log.Clone()
	out.PatientConfirmedArrival = &now
	return e.finalize(out), nil
}

// PatientConfirmDeparture подтверждение ухода пациентом и его длительность
func (e *Engine) PatientConfirmDeparture(log models.SessionTimeLog, now time.Time) (models.SessionTimeLog, error) {
	if err := e.ensureMutable(log); err != nil {
		return log, err
	}
	if log.PatientConfirmedArrival == nil {
		return log, invalid(log, "patient_departure_before_arrival", "patient arrival must be confirmed before departure")
	}
	if log.PatientConfirmedDeparture != nil {
		return log, conflict(log, "patient_departure_already_confirmed", "patient departure already confirmed")
	}
	if now.Before(*log.PatientConfirmedArrival) {
		return log, invalid(log, "patient_departure_precedes_arrival", "departure time precedes confirmed arrival")
	}

	out := log.Clone()
	out.PatientConfirmedDeparture = &now
	minutes := models.DurationMinutes(*out.PatientConfirmedArrival, now)
	out.PatientConfirmedDurationMinutes = &minutes
	return e.finalize(out), nil
}

// ResolveDiscrepancy административное закрытие расхождения.
// Флаг has_discrepancy остается для истории.
func (e *Engine) ResolveDiscrepancy(log models.SessionTimeLog, adminID uint, now time.Time) (models.SessionTimeLog, error) {
	if !log.HasDiscrepancy {
		return log, invalid(log, "no_discrepancy", "session has no discrepancy to resolve")
	}
	if log.DiscrepancyResolved {
		return log, conflict(log, "discrepancy_already_resolved", "discrepancy already resolved")
	}

	out := log.Clone()
	out.DiscrepancyResolved = true
	out.DiscrepancyResolvedAt = &now
	out.DiscrepancyResolvedBy = &adminID
	return out, nil
}

// Refresh пересчитывает производные поля. Идемпотентна.
func (e *Engine) Refresh(log models.SessionTimeLog) models.SessionTimeLog {
	return e.finalize(log.Clone())
}

// DeriveStatus статус как функция заполненных полей. Поля только добавляются,
// поэтому статус монотонно растет.
func (e *Engine) DeriveStatus(log models.SessionTimeLog) models.SessionStatus {
	switch {
	case e.isComplete(log):
		return models.SessionCompleted
	case log.TherapistLeavingTime != nil:
		return models.SessionTherapistLeft
	case log.TherapistReachedTime != nil && log.PatientConfirmedArrival != nil:
		return models.SessionInProgress
	case log.TherapistReachedTime != nil:
		return models.SessionTherapistReached
	default:
		return models.SessionScheduled
	}
}

func (e *Engine) isComplete(log models.SessionTimeLog) bool {
	if log.TherapistLeavingTime == nil {
		return false
	}
	if e.policy.Completion == CompletionTherapistSufficient {
		return true
	}
	return log.PatientConfirmedDeparture != nil
}

func (e *Engine) finalize(log models.SessionTimeLog) models.SessionTimeLog {
	log = e.detector.Evaluate(log)
	status := e.DeriveStatus(log)
	if status.Rank() > log.StatusRank || log.Status == "" {
		log.Status = status
		log.StatusRank = status.Rank()
	}
	return log
}

func (e *Engine) ensureMutable(log models.SessionTimeLog) error {
	if log.IsCompleted() {
		return apperror.Immutable("session_completed", "completed session is read-only").
			With("session_id", strconv.FormatUint(uint64(log.ID), 10))
	}
	return nil
}

func conflict(log models.SessionTimeLog, rule, msg string) error {
	return apperror.Conflict(rule, "%s", msg).With("session_id", strconv.FormatUint(uint64(log.ID), 10))
}

func invalid(log models.SessionTimeLog, rule, msg string) error {
	return apperror.InvalidState(rule, "%s", msg).With("session_id", strconv.FormatUint(uint64(log.ID), 10))
}
