package repository

import (
	"errors"
	"time"

	"session-attendance-bot/internal/apperror"
	"session-attendance-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type LeaveRequestRepository interface {
	Create(req *models.LeaveRequest) error
	GetByID(id uint) (*models.LeaveRequest, error)
	ListByTherapistAndDate(therapistID uint, date string) ([]models.LeaveRequest, error)
	ListByTherapistAndMonth(therapistID uint, year, month int) ([]models.LeaveRequest, error)
	ListPending() ([]models.LeaveRequest, error)
	Decide(id uint, state models.RequestState, adminID uint, decidedAt time.Time) (bool, error)
}

type GormLeaveRequestRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormLeaveRequestRepository(db *gorm.DB, logger *logrus.Logger) (*GormLeaveRequestRepository, error) {
	logger = defaultLogger(logger)

	if err := db.AutoMigrate(&models.LeaveRequest{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate leave_requests table")
		return nil, err
	}
	return &GormLeaveRequestRepository{db: db, logger: logger}, nil
}

// Create добавляет заявку. На одну дату допускается одна нерассмотренная заявка.
func (r *GormLeaveRequestRepository) Create(req *models.LeaveRequest) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var pending int64
		err := tx.Model(&models.LeaveRequest{}).
			Where("therapist_id = ? AND date = ? AND state = ?", req.TherapistID, req.Date, models.RequestPending).
			Count(&pending).Error
		if err != nil {
			return err
		}
		if pending > 0 {
			r.logger.WithFields(logrus.Fields{
				"therapist_id": req.TherapistID,
				"date":         req.Date,
			}).Warn("Pending request already exists for date")
			return apperror.Conflict("request_already_pending", "a request for %s is awaiting decision", req.Date)
		}

		if err := tx.Create(req).Error; err != nil {
			r.logger.WithError(err).Error("Failed to create leave request")
			return err
		}

		r.logger.WithFields(logrus.Fields{
			"id":           req.ID,
			"therapist_id": req.TherapistID,
			"date":         req.Date,
			"kind":         req.Kind,
		}).Info("Leave request created")
		return nil
	})
}

func (r *GormLeaveRequestRepository) GetByID(id uint) (*models.LeaveRequest, error) {
	var req models.LeaveRequest
	err := r.db.First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *GormLeaveRequestRepository) ListByTherapistAndDate(therapistID uint, date string) ([]models.LeaveRequest, error) {
	var reqs []models.LeaveRequest
	err := r.db.Where("therapist_id = ? AND date = ?", therapistID, date).
		Order("created_at ASC, id ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *GormLeaveRequestRepository) ListByTherapistAndMonth(therapistID uint, year, month int) ([]models.LeaveRequest, error) {
	first, last := models.MonthBounds(year, month)

	var reqs []models.LeaveRequest
	err := r.db.Where("therapist_id = ? AND date BETWEEN ? AND ?", therapistID, first, last).
		Order("date ASC, id ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *GormLeaveRequestRepository) ListPending() ([]models.LeaveRequest, error) {
	var reqs []models.LeaveRequest
	err := r.db.Where("state = ?", models.RequestPending).
		Order("date ASC, id ASC").
		Find(&reqs).Error
	return reqs, err
}

// Decide фиксирует решение. false если заявка уже рассмотрена.
func (r *GormLeaveRequestRepository) Decide(id uint, state models.RequestState, adminID uint, decidedAt time.Time) (bool, error) {
	result := r.db.Model(&models.LeaveRequest{}).
		Where("id = ? AND state = ?", id, models.RequestPending).
		Updates(map[string]interface{}{
			"state":       state,
			"is_approved": state == models.RequestApproved,
			"decided_at":  decidedAt,
			"decided_by":  adminID,
		})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to decide leave request")
		return false, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":       id,
		"state":    state,
		"admin_id": adminID,
		"applied":  result.RowsAffected > 0,
	}).Info("Leave request decision")
	return result.RowsAffected > 0, nil
}
