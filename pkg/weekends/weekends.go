package weekends

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CalendarJSON - структура производственного календаря
type CalendarJSON struct {
	Year        int             `json:"year"`
	Months      []MonthWeekends `json:"months"`
	Transitions []Transition    `json:"transitions"`
	Holidays    []HolidayTitle  `json:"holidays"`
	Statistic   Statistic       `json:"statistic"`
}

type MonthWeekends struct {
	Month int    `json:"month"`
	Days  string `json:"days"`
}

type Transition struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// HolidayTitle название праздника для даты MM.DD
type HolidayTitle struct {
	Date  string `json:"date"`
	Title string `json:"title"`
}

type Statistic struct {
	Workdays int     `json:"workdays"`
	Holidays int     `json:"holidays"`
	Hours40  float64 `json:"hours40"`
	Hours36  float64 `json:"hours36"`
	Hours24  float64 `json:"hours24"`
}

// NonWorkingDay - нерабочий день календаря
type NonWorkingDay struct {
	Date        string `json:"date"` // YYYY-MM-DD
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	Day         int    `json:"day"`
	Title       string `json:"title,omitempty"`
	Transferred bool   `json:"transferred,omitempty"` // перенесенный выходной (+)
}

// ParseFile - читает JSON календаря из файла
func ParseFile(filePath string) (*CalendarJSON, []NonWorkingDay, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read JSON file: %w", err)
	}
	return Parse(data)
}

// Parse - разбирает JSON и возвращает нерабочие дни.
// Сокращенные предпраздничные дни (*) рабочие и в результат не попадают.
func Parse(data []byte) (*CalendarJSON, []NonWorkingDay, error) {
	var calendar CalendarJSON
	if err := json.Unmarshal(data, &calendar); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if calendar.Year == 0 {
		return nil, nil, fmt.Errorf("calendar year is missing")
	}

	titles := make(map[string]string, len(calendar.Holidays))
	for _, h := range calendar.Holidays {
		titles[h.Date] = h.Title
	}

	nonWorkingDays := []NonWorkingDay{}
	for _, monthData := range calendar.Months {
		if monthData.Month < 1 || monthData.Month > 12 {
			return nil, nil, fmt.Errorf("invalid month %d", monthData.Month)
		}

		for _, dayStr := range strings.Split(monthData.Days, ",") {
			dayStr = strings.TrimSpace(dayStr)
			if dayStr == "" || strings.HasSuffix(dayStr, "*") {
				continue
			}
			transferred := strings.HasSuffix(dayStr, "+")
			dayStr = strings.TrimSuffix(dayStr, "+")

			day, err := strconv.Atoi(dayStr)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to parse day '%s' in month %d: %w",
					dayStr, monthData.Month, err)
			}

			date := time.Date(calendar.Year, time.Month(monthData.Month), day, 0, 0, 0, 0, time.UTC)
			if date.Month() != time.Month(monthData.Month) {
				return nil, nil, fmt.Errorf("day %d does not exist in month %d", day, monthData.Month)
			}

			nonWorkingDays = append(nonWorkingDays, NonWorkingDay{
				Date:        date.Format("2006-01-02"),
				Year:        calendar.Year,
				Month:       monthData.Month,
				Day:         day,
				Title:       titles[fmt.Sprintf("%02d.%02d", monthData.Month, day)],
				Transferred: transferred,
			})
		}
	}

	return &calendar, nonWorkingDays, nil
}
