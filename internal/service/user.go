package service

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"session-attendance-bot/internal/apperror"
	"session-attendance-bot/internal/models"
	"session-attendance-bot/internal/repository"
)

type UserService struct {
	repo   repository.UserRepository
	logger *logrus.Logger
}

func NewUserService(repo repository.UserRepository, logger *logrus.Logger) *UserService {
	return &UserService{repo: repo, logger: newLogger(logger)}
}

// Register регистрирует терапевта или пациента по чату Telegram
func (s *UserService) Register(chatID int64, username, firstName, lastName string, role models.Role) (*models.User, error) {
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return nil, apperror.Validation("name_required", "имя не может быть пустым")
	}
	if role != models.RoleTherapist && role != models.RolePatient {
		return nil, apperror.Validation("role_not_registrable", "роль %q нельзя выбрать при регистрации", role)
	}

	existing, err := s.repo.GetByChatID(chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("user_already_exists", "пользователь уже зарегистрирован как %s", existing.Role)
	}

	user := &models.User{
		ChatID:    &chatID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    role,
	}).Info("User registered")
	return user, nil
}

// EnsureAdmin создает или повышает базового администратора
func (s *UserService) EnsureAdmin(chatID int64, firstName string) (*models.User, error) {
	user, err := s.repo.GetByChatID(chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	if user == nil {
		if firstName == "" {
			firstName = "Admin"
		}
		user = &models.User{ChatID: &chatID, FirstName: firstName, Role: models.RoleAdmin}
		if err := s.repo.Create(user); err != nil {
			return nil, err
		}
		s.logger.WithField("user_id", user.ID).Info("Base admin created")
		return user, nil
	}

	if !user.IsAdmin() {
		if err := s.repo.UpdateRole(user.ID, models.RoleAdmin); err != nil {
			return nil, err
		}
		user.Role = models.RoleAdmin
		s.logger.WithField("user_id", user.ID).Info("Base admin promoted")
	}
	return user, nil
}

// GetUser возвращает пользователя по chatID, nil если не зарегистрирован
func (s *UserService) GetUser(chatID int64) (*models.User, error) {
	user, err := s.repo.GetByChatID(chatID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return user, nil
}

// GetByID возвращает пользователя или NotFound
func (s *UserService) GetByID(id uint) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user_not_found", "пользователь %d не найден", id)
	}
	return user, nil
}

// UpdateRole меняет роль пользователя (только для админов)
func (s *UserService) UpdateRole(caller *models.User, targetID uint, role models.Role) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if !role.IsValid() {
		return apperror.Validation("unknown_role", "неизвестная роль %q", role)
	}
	return s.repo.UpdateRole(targetID, role)
}

// ListUsers все пользователи, для администратора
func (s *UserService) ListUsers(caller *models.User) ([]*models.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.repo.GetAll()
}

// FormatUserInfo форматирует информацию о пользователе для вывода
func (s *UserService) FormatUserInfo(user *models.User) string {
	var lines []string

	lines = append(lines, "👤 Профиль пользователя:")
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("🆔 ID: %d", user.ID))

	if user.Username != "" {
		lines = append(lines, fmt.Sprintf("📛 Никнейм: @%s", user.Username))
	}

	lines = append(lines, fmt.Sprintf("👨‍💼 Имя: %s", user.FullName()))
	lines = append(lines, fmt.Sprintf("%s Роль: %s", roleEmoji(user.Role), string(user.Role)))

	return strings.Join(lines, "\n")
}

func roleEmoji(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return "👑"
	case models.RoleTherapist:
		return "🩺"
	}
	return "👤"
}
