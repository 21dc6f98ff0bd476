package attendance

import "session-attendance-bot/internal/models"

// Detector сравнивает длительность по отметкам терапевта и по подтверждениям пациента
type Detector struct {
	ThresholdMinutes int
}

// Evaluate выставляет has_discrepancy и discrepancy_minutes, только когда обе
// длительности известны. Флаг discrepancy_resolved не трогает.
func (d Detector) Evaluate(log models.SessionTimeLog) models.SessionTimeLog {
	if log.TherapistDurationMinutes == nil || log.PatientConfirmedDurationMinutes == nil {
		return log
	}

	delta := Delta(*log.TherapistDurationMinutes, *log.PatientConfirmedDurationMinutes)
	if delta > d.ThresholdMinutes {
		log.HasDiscrepancy = true
		log.DiscrepancyMinutes = delta
	} else {
		log.HasDiscrepancy = false
		log.DiscrepancyMinutes = 0
	}
	return log
}

// Delta модуль разницы длительностей
func Delta(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
