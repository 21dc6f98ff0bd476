package handler

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"session-attendance-bot/internal/models"
)

// register /register therapist|patient Имя [Фамилия]
func (h *Handler) register(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	parts := strings.Fields(args)
	if len(parts) < 2 {
		h.reply(chatID, "❌ Формат: /register therapist|patient Имя [Фамилия]")
		return
	}

	username := ""
	if message.From != nil {
		username = message.From.UserName
	}
	lastName := strings.Join(parts[2:], " ")

	user, err := h.userService.Register(chatID, username, parts[1], lastName, models.Role(parts[0]))
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	h.reply(chatID, "✅ Профиль создан!\n\n"+h.userService.FormatUserInfo(user))
}

func (h *Handler) showProfile(message *tgbotapi.Message) {
	user := h.currentUser(message)
	if user == nil {
		return
	}
	text := h.userService.FormatUserInfo(user)
	if user.IsAdmin() && h.config != nil && h.config.BaseAdminChatID != 0 {
		text += fmt.Sprintf("\n\n🔧 ID главного администратора: %d", h.config.BaseAdminChatID)
	}
	h.reply(message.Chat.ID, text)
}

// setUserRole /setrole пользователь роль
func (h *Handler) setUserRole(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	admin := h.currentAdmin(message)
	if admin == nil {
		return
	}

	parts := strings.Fields(args)
	if len(parts) != 2 {
		h.reply(chatID, "❌ Формат: /setrole пользователь therapist|patient|admin")
		return
	}
	id, err := parseID(parts[0])
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}

	target, err := h.userService.GetByID(id)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	if h.config != nil && h.config.BaseAdminChatID != 0 && target.ChatID != nil && *target.ChatID == h.config.BaseAdminChatID {
		h.reply(chatID, "❌ Нельзя изменить роль главного администратора.")
		return
	}

	if err := h.userService.UpdateRole(admin, id, models.Role(parts[1])); err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	h.reply(chatID, "✅ Роль обновлена")
}
