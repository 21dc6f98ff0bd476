package attendance

import (
	"fmt"
	"strings"
	"time"
)

// CompletionPolicy определяет, когда визит считается завершенным
type CompletionPolicy string

const (
	// CompletionDualConfirmation визит завершен, когда ушел терапевт и пациент подтвердил уход
	CompletionDualConfirmation CompletionPolicy = "dual_confirmation"

	// CompletionTherapistSufficient визит завершен по одной отметке ухода терапевта
	CompletionTherapistSufficient CompletionPolicy = "therapist_sufficient"
)

// DefaultDiscrepancyThresholdMinutes допустимое расхождение длительностей
const DefaultDiscrepancyThresholdMinutes = 15

// Policy параметры учета визитов и посещаемости
type Policy struct {
	DiscrepancyThresholdMinutes int
	Completion                  CompletionPolicy
	NonWorkingWeekdays          []time.Weekday
	Location                    *time.Location
}

// DefaultPolicy порог 15 минут, двойное подтверждение, выходной воскресенье
func DefaultPolicy() Policy {
	return Policy{
		DiscrepancyThresholdMinutes: DefaultDiscrepancyThresholdMinutes,
		Completion:                  CompletionDualConfirmation,
		NonWorkingWeekdays:          []time.Weekday{time.Sunday},
		Location:                    time.Local,
	}
}

// Validate проверяет параметры политики
func (p Policy) Validate() error {
	if p.DiscrepancyThresholdMinutes < 0 {
		return fmt.Errorf("discrepancy threshold must be >= 0, got %d", p.DiscrepancyThresholdMinutes)
	}
	switch p.Completion {
	case CompletionDualConfirmation, CompletionTherapistSufficient:
	default:
		return fmt.Errorf("unknown completion policy %q", p.Completion)
	}
	if len(p.NonWorkingWeekdays) >= 7 {
		return fmt.Errorf("at least one working weekday is required")
	}
	return nil
}

// IsNonWorkingWeekday проверяет день недели по политике
func (p Policy) IsNonWorkingWeekday(day time.Weekday) bool {
	for _, wd := range p.NonWorkingWeekdays {
		if wd == day {
			return true
		}
	}
	return false
}

// Zone часовой пояс, в котором считаются календарные даты
func (p Policy) Zone() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

// ParseWeekdays разбирает список вида "saturday,sunday"
func ParseWeekdays(value string) ([]time.Weekday, error) {
	names := map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
		"saturday": time.Saturday,
	}

	var days []time.Weekday
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		wd, ok := names[part]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		days = append(days, wd)
	}
	return days, nil
}
