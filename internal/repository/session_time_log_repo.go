package repository

import (
	"errors"
	"time"

	"session-attendance-bot/internal/apperror"
	"session-attendance-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RoleFieldUpdate условная запись одной отметки роли.
// Запись проходит, только если Column еще пуст, Requires уже заполнен и визит не завершен.
type RoleFieldUpdate struct {
	Column         string
	Value          time.Time
	Requires       string
	DurationColumn string
	Duration       *int
}

type SessionTimeLogRepository interface {
	Create(log *models.SessionTimeLog) error
	GetByID(id uint) (*models.SessionTimeLog, error)
	ListByDate(date string) ([]models.SessionTimeLog, error)
	ListByTherapistAndDate(therapistID uint, date string) ([]models.SessionTimeLog, error)
	ListByPatientAndDate(patientID uint, date string) ([]models.SessionTimeLog, error)
	ListByTherapistAndMonth(therapistID uint, year, month int) ([]models.SessionTimeLog, error)
	ListDiscrepancies(unresolvedOnly bool) ([]models.SessionTimeLog, error)
	CountByTherapistAndDate(therapistID uint, date string) (int64, error)
	ApplyRoleField(id uint, update RoleFieldUpdate) (bool, error)
	ApplyDerived(log *models.SessionTimeLog) error
	MarkResolved(log *models.SessionTimeLog) (bool, error)
}

type GormSessionTimeLogRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormSessionTimeLogRepository(db *gorm.DB, logger *logrus.Logger) (*GormSessionTimeLogRepository, error) {
	logger = defaultLogger(logger)

	// Автомиграция
	if err := db.AutoMigrate(&models.SessionTimeLog{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate session_time_logs table")
		return nil, err
	}

	logger.Info("Session time log repository initialized")

	return &GormSessionTimeLogRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormSessionTimeLogRepository) Create(log *models.SessionTimeLog) error {
	r.logger.WithFields(logrus.Fields{
		"appointment_id": log.AppointmentID,
		"therapist_id":   log.TherapistID,
		"date":           log.ScheduledDate,
	}).Info("Creating session time log")

	result := r.db.Create(log)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		r.logger.WithField("appointment_id", log.AppointmentID).Warn("Session already exists for appointment")
		return apperror.Conflict("appointment_already_scheduled", "session for appointment %d already exists", log.AppointmentID)
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create session time log")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":             log.ID,
		"appointment_id": log.AppointmentID,
	}).Info("Session time log created successfully")
	return nil
}

func (r *GormSessionTimeLogRepository) GetByID(id uint) (*models.SessionTimeLog, error) {
	var log models.SessionTimeLog
	result := r.db.First(&log, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("id", id).Debug("Session time log not found")
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get session time log by ID")
		return nil, result.Error
	}
	return &log, nil
}

func (r *GormSessionTimeLogRepository) ListByDate(date string) ([]models.SessionTimeLog, error) {
	return r.list("scheduled_date = ?", date)
}

func (r *GormSessionTimeLogRepository) ListByTherapistAndDate(therapistID uint, date string) ([]models.SessionTimeLog, error) {
	return r.list("therapist_id = ? AND scheduled_date = ?", therapistID, date)
}

func (r *GormSessionTimeLogRepository) ListByPatientAndDate(patientID uint, date string) ([]models.SessionTimeLog, error) {
	return r.list("patient_id = ? AND scheduled_date = ?", patientID, date)
}

func (r *GormSessionTimeLogRepository) ListByTherapistAndMonth(therapistID uint, year, month int) ([]models.SessionTimeLog, error) {
	first, last := models.MonthBounds(year, month)
	return r.list("therapist_id = ? AND scheduled_date BETWEEN ? AND ?", therapistID, first, last)
}

func (r *GormSessionTimeLogRepository) ListDiscrepancies(unresolvedOnly bool) ([]models.SessionTimeLog, error) {
	if unresolvedOnly {
		return r.list("has_discrepancy = ? AND discrepancy_resolved = ?", true, false)
	}
	return r.list("has_discrepancy = ?", true)
}

func (r *GormSessionTimeLogRepository) list(query string, args ...interface{}) ([]models.SessionTimeLog, error) {
	var logs []models.SessionTimeLog
	result := r.db.Where(query, args...).Order("scheduled_date ASC, id ASC").Find(&logs)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list session time logs")
		return nil, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"query": query,
		"count": len(logs),
	}).Debug("Retrieved session time logs")
	return logs, nil
}

func (r *GormSessionTimeLogRepository) CountByTherapistAndDate(therapistID uint, date string) (int64, error) {
	var count int64
	err := r.db.Model(&models.SessionTimeLog{}).
		Where("therapist_id = ? AND scheduled_date = ?", therapistID, date).
		Count(&count).Error
	return count, err
}

// ApplyRoleField записывает отметку одной роли условным UPDATE.
// false означает, что условие не выполнилось (поле уже занято или визит завершен).
func (r *GormSessionTimeLogRepository) ApplyRoleField(id uint, update RoleFieldUpdate) (bool, error) {
	values := map[string]interface{}{
		update.Column: update.Value,
		"updated_at":  time.Now(),
	}
	if update.DurationColumn != "" {
		values[update.DurationColumn] = update.Duration
	}

	query := r.db.Model(&models.SessionTimeLog{}).
		Where("id = ?", id).
		Where(update.Column+" IS NULL").
		Where("status <> ?", models.SessionCompleted)
	if update.Requires != "" {
		query = query.Where(update.Requires + " IS NOT NULL")
	}

	result := query.Updates(values)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to apply session role field")
		return false, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":      id,
		"column":  update.Column,
		"applied": result.RowsAffected > 0,
	}).Info("Session role field update")
	return result.RowsAffected > 0, nil
}

// ApplyDerived записывает статус (только вперед) и расхождение, если обе длительности известны
func (r *GormSessionTimeLogRepository) ApplyDerived(log *models.SessionTimeLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.SessionTimeLog{}).
			Where("id = ? AND status_rank < ?", log.ID, log.StatusRank).
			Updates(map[string]interface{}{
				"status":      log.Status,
				"status_rank": log.StatusRank,
			})
		if result.Error != nil {
			return result.Error
		}

		if log.TherapistDurationMinutes != nil && log.PatientConfirmedDurationMinutes != nil {
			result = tx.Model(&models.SessionTimeLog{}).
				Where("id = ?", log.ID).
				Updates(map[string]interface{}{
					"has_discrepancy":     log.HasDiscrepancy,
					"discrepancy_minutes": log.DiscrepancyMinutes,
				})
			if result.Error != nil {
				return result.Error
			}

			if log.HasDiscrepancy {
				r.logger.WithFields(logrus.Fields{
					"id":                  log.ID,
					"discrepancy_minutes": log.DiscrepancyMinutes,
				}).Warn("Session discrepancy detected")
			}
		}
		return nil
	})
}

// MarkResolved закрывает расхождение, если оно еще открыто
func (r *GormSessionTimeLogRepository) MarkResolved(log *models.SessionTimeLog) (bool, error) {
	result := r.db.Model(&models.SessionTimeLog{}).
		Where("id = ? AND has_discrepancy = ? AND discrepancy_resolved = ?", log.ID, true, false).
		Updates(map[string]interface{}{
			"discrepancy_resolved":    true,
			"discrepancy_resolved_at": log.DiscrepancyResolvedAt,
			"discrepancy_resolved_by": log.DiscrepancyResolvedBy,
		})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to resolve discrepancy")
		return false, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":       log.ID,
		"admin_id": log.DiscrepancyResolvedBy,
	}).Info("Discrepancy resolved")
	return result.RowsAffected > 0, nil
}
