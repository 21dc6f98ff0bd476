package repository

import (
	"errors"

	"session-attendance-bot/internal/apperror"
	"session-attendance-bot/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByChatID(chatID int64) (*models.User, error)
	Update(user *models.User) error
	UpdateRole(id uint, role models.Role) error
	ListByRole(role models.Role) ([]*models.User, error)
	GetAll() ([]*models.User, error)
}

type GormUserRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormUserRepository(db *gorm.DB, logger *logrus.Logger) (*GormUserRepository, error) {
	logger = defaultLogger(logger)

	// Автомиграция - создает таблицы если их нет
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return nil, err
	}

	return &GormUserRepository{db: db, logger: logger}, nil
}

func (r *GormUserRepository) Create(user *models.User) error {
	result := r.db.Create(user)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("user_already_exists", "пользователь уже существует")
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create user")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"id":   user.ID,
		"role": user.Role,
	}).Info("User created")
	return nil
}

func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	result := r.db.First(&user, id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

func (r *GormUserRepository) GetByChatID(chatID int64) (*models.User, error) {
	var user models.User
	result := r.db.Where("chat_id = ?", chatID).First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

func (r *GormUserRepository) Update(user *models.User) error {
	result := r.db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Select("username", "first_name", "last_name", "role", "chat_id").
		Updates(user)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("user_not_found", "пользователь не найден")
	}
	return nil
}

func (r *GormUserRepository) UpdateRole(id uint, role models.Role) error {
	result := r.db.Model(&models.User{}).
		Where("id = ?", id).
		Update("role", role)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("user_not_found", "пользователь не найден")
	}

	r.logger.WithFields(logrus.Fields{
		"id":   id,
		"role": role,
	}).Info("User role updated")
	return nil
}

func (r *GormUserRepository) ListByRole(role models.Role) ([]*models.User, error) {
	var users []*models.User
	result := r.db.Where("role = ?", role).Order("id ASC").Find(&users)

	if result.Error != nil {
		return nil, result.Error
	}
	return users, nil
}

func (r *GormUserRepository) GetAll() ([]*models.User, error) {
	var users []*models.User
	result := r.db.Order("id ASC").Find(&users)

	if result.Error != nil {
		return nil, result.Error
	}
	return users, nil
}
