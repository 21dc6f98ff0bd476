package handler

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"session-attendance-bot/internal/config"
	"session-attendance-bot/internal/models"
	"session-attendance-bot/internal/service"
	"session-attendance-bot/pkg/telegram"
)

type Handler struct {
	client               telegram.Sender
	userService          *service.UserService
	sessionService       *service.SessionService
	attendanceService    *service.AttendanceService
	nonWorkingDayService *service.NonWorkingDayService
	config               *config.BotConfig
	logger               *logrus.Logger
}

func NewHandler(
	client telegram.Sender,
	userService *service.UserService,
	sessionService *service.SessionService,
	attendanceService *service.AttendanceService,
	nonWorkingDayService *service.NonWorkingDayService,
	cfg *config.BotConfig,
	logger *logrus.Logger,
) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		client:               client,
		userService:          userService,
		sessionService:       sessionService,
		attendanceService:    attendanceService,
		nonWorkingDayService: nonWorkingDayService,
		config:               cfg,
		logger:               logger,
	}
}

func (h *Handler) HandleUpdates(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		// Обработка callback query (для inline кнопок)
		if update.CallbackQuery != nil {
			h.handleCallbackQuery(update.CallbackQuery)
			continue
		}

		if update.Message == nil {
			continue
		}

		h.handleMessage(update.Message)
	}
}

// handleCallbackQuery обрабатывает inline кнопки отметок визита: "reached:12"
func (h *Handler) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil || callback.Message.Chat == nil {
		return
	}
	chatID := callback.Message.Chat.ID

	// Удаляем клавиатуру
	editMsg := tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID, tgbotapi.NewInlineKeyboardMarkup())
	h.send(editMsg)

	action, id, ok := strings.Cut(callback.Data, ":")
	if ok {
		if _, known := sessionActions[action]; known {
			fakeMessage := &tgbotapi.Message{
				MessageID: callback.Message.MessageID,
				Chat:      callback.Message.Chat,
				From:      callback.From,
			}
			h.markSession(fakeMessage, action, id)
		}
	}

	// Отвечаем на callback (убираем "часики" у кнопки)
	h.send(tgbotapi.NewCallback(callback.ID, ""))
}

func (h *Handler) handleMessage(message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}

	username := ""
	if message.From != nil {
		username = message.From.UserName
	}
	h.logger.WithFields(logrus.Fields{
		"chat_id":  message.Chat.ID,
		"username": username,
	}).Infof("Incoming message: %s", message.Text)

	if message.IsCommand() {
		h.handleCommand(message)
		return
	}

	h.reply(message.Chat.ID, "ℹ️ Я понимаю только команды. Используйте /help для списка команд.")
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.client.Send(c); err != nil {
		h.logger.WithError(err).Warn("Failed to send telegram message")
	}
}

func (h *Handler) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

// currentUser пользователь чата. Незарегистрированному отправляется подсказка.
func (h *Handler) currentUser(message *tgbotapi.Message) *models.User {
	chatID := message.Chat.ID

	user, err := h.userService.GetUser(chatID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load user")
		h.reply(chatID, "❌ Ошибка получения профиля: "+err.Error())
		return nil
	}
	if user == nil {
		h.logger.WithField("chat_id", chatID).Warn("User not registered")
		h.reply(chatID, "❌ Профиль не найден.\nИспользуйте /register therapist|patient Имя чтобы зарегистрироваться.")
		return nil
	}
	return user
}

// currentAdmin как currentUser, но только для администраторов
func (h *Handler) currentAdmin(message *tgbotapi.Message) *models.User {
	user := h.currentUser(message)
	if user == nil {
		return nil
	}
	if !user.IsAdmin() {
		h.logger.WithField("chat_id", message.Chat.ID).Warn("Unauthorized access to admin command")
		h.reply(message.Chat.ID, "❌ Доступ запрещен. Эта команда только для администраторов.")
		return nil
	}
	return user
}
