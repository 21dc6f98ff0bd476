package models

import (
	"fmt"
	"time"
)

// DateLayout формат календарной даты в БД и во внешних интерфейсах
const DateLayout = "2006-01-02"

// DateKey возвращает календарную дату в формате YYYY-MM-DD в зоне значения t
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate разбирает YYYY-MM-DD как полночь в указанной зоне
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", value, err)
	}
	return t, nil
}

// StartOfDay обрезает время до полуночи в зоне значения t
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MonthBounds возвращает первый и последний день месяца в формате DateLayout
func MonthBounds(year, month int) (string, string) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return DateKey(first), DateKey(last)
}
