package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"session-attendance-bot/internal/apperror"
	"session-attendance-bot/internal/models"
)

// Clock источник текущего времени
type Clock interface {
	Now() time.Time
}

// SystemClock реальное время
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func newLogger(logger *logrus.Logger) *logrus.Logger {
	if logger != nil {
		return logger
	}
	logger = logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}

func requireRole(caller *models.User, role models.Role) error {
	if caller == nil {
		return apperror.Forbidden("caller_required", "caller identity is required")
	}
	if caller.Role != role {
		return apperror.Forbidden("role_required", "operation requires role %s", role)
	}
	return nil
}

func requireAdmin(caller *models.User) error {
	return requireRole(caller, models.RoleAdmin)
}

// requireTherapistAccess терапевт видит только себя, администратор всех
func requireTherapistAccess(caller *models.User, therapistID uint) error {
	if caller == nil {
		return apperror.Forbidden("caller_required", "caller identity is required")
	}
	if caller.IsAdmin() || (caller.IsTherapist() && caller.ID == therapistID) {
		return nil
	}
	return apperror.Forbidden("therapist_access_denied", "attendance of therapist %d is not accessible", therapistID)
}
