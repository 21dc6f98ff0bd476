package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"session-attendance-bot/internal/models"
	"session-attendance-bot/internal/repository"
	"session-attendance-bot/pkg/weekends"
)

type NonWorkingDayService struct {
	repo   repository.NonWorkingDayRepository
	logger *logrus.Logger
}

func NewNonWorkingDayService(repo repository.NonWorkingDayRepository, logger *logrus.Logger) *NonWorkingDayService {
	return &NonWorkingDayService{repo: repo, logger: newLogger(logger)}
}

// LoadFromJSON загружает праздники года из файла производственного календаря.
// Праздники этого года в базе заменяются целиком.
func (s *NonWorkingDayService) LoadFromJSON(filePath string) (int, error) {
	calendar, days, err := weekends.ParseFile(filePath)
	if err != nil {
		return 0, err
	}

	nonWorkingDays := make([]models.NonWorkingDay, 0, len(days))
	for _, d := range days {
		nonWorkingDays = append(nonWorkingDays, models.NonWorkingDay{
			Date:        d.Date,
			Year:        d.Year,
			Month:       d.Month,
			Day:         d.Day,
			Title:       d.Title,
			Transferred: d.Transferred,
		})
	}

	if err := s.repo.ReplaceYear(calendar.Year, nonWorkingDays); err != nil {
		return 0, fmt.Errorf("failed to store non-working days: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"file":  filePath,
		"year":  calendar.Year,
		"count": len(nonWorkingDays),
	}).Info("Production calendar loaded")
	return len(nonWorkingDays), nil
}

// GetNonWorkingDaysForMonth возвращает праздники указанного месяца
func (s *NonWorkingDayService) GetNonWorkingDaysForMonth(year, month int) ([]models.NonWorkingDay, error) {
	return s.repo.GetByYearMonth(year, month)
}

// IsNonWorkingDay проверяет дату YYYY-MM-DD
func (s *NonWorkingDayService) IsNonWorkingDay(date string) (bool, error) {
	return s.repo.IsNonWorkingDay(date)
}
