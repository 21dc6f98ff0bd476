package repository

import (
	"session-attendance-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NonWorkingDayRepository interface {
	GetByYearMonth(year, month int) ([]models.NonWorkingDay, error)
	GetAll() ([]models.NonWorkingDay, error)
	ReplaceYear(year int, days []models.NonWorkingDay) error
	IsNonWorkingDay(date string) (bool, error)
}

type GormNonWorkingDayRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormNonWorkingDayRepository(db *gorm.DB, logger *logrus.Logger) (*GormNonWorkingDayRepository, error) {
	logger = defaultLogger(logger)

	// Автомиграция для таблицы non_working_days
	if err := db.AutoMigrate(&models.NonWorkingDay{}); err != nil {
		return nil, err
	}

	return &GormNonWorkingDayRepository{db: db, logger: logger}, nil
}

// ReplaceYear заменяет праздники года одним набором
func (r *GormNonWorkingDayRepository) ReplaceYear(year int, days []models.NonWorkingDay) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("year = ?", year).Delete(&models.NonWorkingDay{}).Error; err != nil {
			return err
		}
		if len(days) == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&days).Error; err != nil {
			return err
		}

		r.logger.WithFields(logrus.Fields{
			"year":  year,
			"count": len(days),
		}).Info("Non-working days replaced")
		return nil
	})
}

func (r *GormNonWorkingDayRepository) GetByYearMonth(year, month int) ([]models.NonWorkingDay, error) {
	var days []models.NonWorkingDay
	err := r.db.Where("year = ? AND month = ?", year, month).Order("day ASC").Find(&days).Error
	return days, err
}

func (r *GormNonWorkingDayRepository) GetAll() ([]models.NonWorkingDay, error) {
	var days []models.NonWorkingDay
	err := r.db.Order("date ASC").Find(&days).Error
	return days, err
}

func (r *GormNonWorkingDayRepository) IsNonWorkingDay(date string) (bool, error) {
	var count int64
	err := r.db.Model(&models.NonWorkingDay{}).
		Where("date = ?", date).
		Count(&count).Error
	return count > 0, err
}
