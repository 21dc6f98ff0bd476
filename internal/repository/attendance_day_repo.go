package repository

import (
	"errors"

	"session-attendance-bot/internal/apperror"
	"session-attendance-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttendanceDayRepository interface {
	GetByTherapistAndDate(therapistID uint, date string) (*models.AttendanceDayRecord, error)
	ListByTherapistAndMonth(therapistID uint, year, month int) ([]models.AttendanceDayRecord, error)
	Submit(rec *models.AttendanceDayRecord) error
	Resubmit(rec *models.AttendanceDayRecord, previous models.DayStatus) error
	Approve(rec *models.AttendanceDayRecord) error
	Save(rec *models.AttendanceDayRecord) error
}

// mutableDayColumns колонки, которые меняются после создания записи
var mutableDayColumns = []string{
	"status", "is_approved", "approved_by", "approved_at", "has_appointments",
	"submitted_at", "notes", "pending_request_id", "updated_at",
}

type GormAttendanceDayRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormAttendanceDayRepository(db *gorm.DB, logger *logrus.Logger) (*GormAttendanceDayRepository, error) {
	logger = defaultLogger(logger)

	if err := db.AutoMigrate(&models.AttendanceDayRecord{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate attendance_day_records table")
		return nil, err
	}

	logger.Info("Attendance day repository initialized")
	return &GormAttendanceDayRepository{db: db, logger: logger}, nil
}

func (r *GormAttendanceDayRepository) GetByTherapistAndDate(therapistID uint, date string) (*models.AttendanceDayRecord, error) {
	var rec models.AttendanceDayRecord
	result := r.db.Where("therapist_id = ? AND date = ?", therapistID, date).First(&rec)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithFields(logrus.Fields{
			"therapist_id": therapistID,
			"date":         date,
		}).Debug("Attendance day record not found")
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get attendance day record")
		return nil, result.Error
	}
	return &rec, nil
}

func (r *GormAttendanceDayRepository) ListByTherapistAndMonth(therapistID uint, year, month int) ([]models.AttendanceDayRecord, error) {
	first, last := models.MonthBounds(year, month)

	var records []models.AttendanceDayRecord
	result := r.db.Where("therapist_id = ? AND date BETWEEN ? AND ?", therapistID, first, last).
		Order("date ASC").
		Find(&records)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list attendance day records")
		return nil, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"therapist_id": therapistID,
		"year":         year,
		"month":        month,
		"count":        len(records),
	}).Debug("Retrieved attendance day records for month")
	return records, nil
}

// Submit сохраняет отправку дня. Запись создается при первой отправке, а
// существующая обновляется только если на нее еще не было отправки.
// Повторная отправка возвращает ConflictError.
func (r *GormAttendanceDayRepository) Submit(rec *models.AttendanceDayRecord) error {
	logger := r.logger.WithFields(logrus.Fields{
		"therapist_id": rec.TherapistID,
		"date":         rec.Date,
		"status":       rec.Status,
	})

	if rec.ID == 0 {
		result := r.db.Create(rec)
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			logger.Warn("Attendance day record created concurrently")
			return apperror.Conflict("day_already_submitted", "attendance for %s already submitted", rec.Date)
		}
		if result.Error != nil {
			logger.WithError(result.Error).Error("Failed to create attendance day record")
			return result.Error
		}
		logger.Info("Attendance day record created")
		return nil
	}

	result := r.db.Model(&models.AttendanceDayRecord{}).
		Where("id = ? AND submitted_at IS NULL", rec.ID).
		Select(mutableDayColumns).
		Updates(rec)
	if result.Error != nil {
		logger.WithError(result.Error).Error("Failed to submit attendance day record")
		return result.Error
	}
	if result.RowsAffected == 0 {
		logger.Warn("Attendance day already submitted")
		return apperror.Conflict("day_already_submitted", "attendance for %s already submitted", rec.Date)
	}

	logger.Info("Attendance day record submitted")
	return nil
}

// Resubmit перезаписывает отправку, вытесненную появившимися визитами.
// Запись обновляется только если ее статус все еще previous, иначе
// ее уже перезаписал параллельный запрос.
func (r *GormAttendanceDayRepository) Resubmit(rec *models.AttendanceDayRecord, previous models.DayStatus) error {
	logger := r.logger.WithFields(logrus.Fields{
		"therapist_id": rec.TherapistID,
		"date":         rec.Date,
		"status":       rec.Status,
		"previous":     previous,
	})

	result := r.db.Model(&models.AttendanceDayRecord{}).
		Where("id = ? AND status = ? AND submitted_at IS NOT NULL", rec.ID, previous).
		Select(mutableDayColumns).
		Updates(rec)
	if result.Error != nil {
		logger.WithError(result.Error).Error("Failed to resubmit attendance day record")
		return result.Error
	}
	if result.RowsAffected == 0 {
		logger.Warn("Attendance day resubmitted concurrently")
		return apperror.Conflict("day_already_submitted", "attendance for %s already submitted", rec.Date)
	}

	logger.Info("Attendance day record resubmitted")
	return nil
}

// Approve отмечает отправленный день утвержденным. Уже утвержденный
// день возвращает ConflictError.
func (r *GormAttendanceDayRepository) Approve(rec *models.AttendanceDayRecord) error {
	logger := r.logger.WithFields(logrus.Fields{
		"therapist_id": rec.TherapistID,
		"date":         rec.Date,
	})

	result := r.db.Model(&models.AttendanceDayRecord{}).
		Where("id = ? AND is_approved = ? AND submitted_at IS NOT NULL", rec.ID, false).
		Select("is_approved", "approved_by", "approved_at", "updated_at").
		Updates(rec)
	if result.Error != nil {
		logger.WithError(result.Error).Error("Failed to approve attendance day record")
		return result.Error
	}
	if result.RowsAffected == 0 {
		logger.Warn("Attendance day already approved")
		return apperror.Conflict("day_already_approved", "attendance for %s already approved", rec.Date)
	}

	logger.Info("Attendance day record approved")
	return nil
}

// Save безусловно сохраняет запись по ключу (therapist_id, date).
// Используется для решений администратора и пересчета.
func (r *GormAttendanceDayRepository) Save(rec *models.AttendanceDayRecord) error {
	var result *gorm.DB
	if rec.ID != 0 {
		result = r.db.Model(&models.AttendanceDayRecord{}).
			Where("id = ?", rec.ID).
			Select(mutableDayColumns).
			Updates(rec)
	} else {
		result = r.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "therapist_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns(mutableDayColumns),
		}).Create(rec)
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to save attendance day record")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"therapist_id": rec.TherapistID,
		"date":         rec.Date,
		"status":       rec.Status,
	}).Info("Attendance day record saved")
	return nil
}
