package handler

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"session-attendance-bot/internal/attendance"
	"session-attendance-bot/internal/models"
	"session-attendance-bot/internal/service"
)

type sessionAction struct {
	done string
	run  func(*service.SessionService, *models.User, uint) (*models.SessionTimeLog, error)
}

var sessionActions = map[string]sessionAction{
	"reached":   {done: "✅ Приход отмечен", run: (*service.SessionService).TherapistMarkReached},
	"leaving":   {done: "✅ Уход отмечен", run: (*service.SessionService).TherapistMarkLeaving},
	"arrival":   {done: "✅ Приход терапевта подтвержден", run: (*service.SessionService).PatientConfirmArrival},
	"departure": {done: "✅ Уход терапевта подтвержден", run: (*service.SessionService).PatientConfirmDeparture},
}

// showTodaySessions визиты на сегодня с кнопкой следующей отметки
func (h *Handler) showTodaySessions(message *tgbotapi.Message) {
	user := h.currentUser(message)
	if user == nil {
		return
	}

	views, err := h.sessionService.GetTodaySessions(user)
	if err != nil {
		h.reply(message.Chat.ID, errorText(err))
		return
	}
	if len(views) == 0 {
		h.reply(message.Chat.ID, "📭 На сегодня визитов нет.")
		return
	}

	for _, v := range views {
		msg := tgbotapi.NewMessage(message.Chat.ID, formatSession(v))
		if button, ok := nextMark(user.Role, v); ok {
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(button))
		}
		h.send(msg)
	}
}

// nextMark кнопка следующей отметки для роли
func nextMark(role models.Role, v attendance.SessionView) (tgbotapi.InlineKeyboardButton, bool) {
	if v.Status == models.SessionCompleted {
		return tgbotapi.InlineKeyboardButton{}, false
	}
	data := func(action string) string { return fmt.Sprintf("%s:%d", action, v.ID) }

	switch role {
	case models.RoleTherapist:
		switch {
		case v.TherapistReachedTime == nil:
			return tgbotapi.NewInlineKeyboardButtonData("📍 Я на месте", data("reached")), true
		case v.TherapistLeavingTime == nil:
			return tgbotapi.NewInlineKeyboardButtonData("🚪 Ухожу", data("leaving")), true
		}
	case models.RolePatient:
		switch {
		case v.PatientConfirmedArrival == nil:
			return tgbotapi.NewInlineKeyboardButtonData("👋 Терапевт пришел", data("arrival")), true
		case v.PatientConfirmedDeparture == nil:
			return tgbotapi.NewInlineKeyboardButtonData("👋 Терапевт ушел", data("departure")), true
		}
	}
	return tgbotapi.InlineKeyboardButton{}, false
}

func (h *Handler) markSession(message *tgbotapi.Message, action, args string) {
	chatID := message.Chat.ID
	user := h.currentUser(message)
	if user == nil {
		return
	}

	cmd, ok := sessionActions[action]
	if !ok {
		h.sendUnknownCommand(message)
		return
	}

	id, err := parseID(args)
	if err != nil {
		h.reply(chatID, errorText(err)+"\nПример: /reached 12")
		return
	}

	log, err := cmd.run(h.sessionService, user, id)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"chat_id":    chatID,
			"action":     action,
			"session_id": id,
		}).WithError(err).Warn("Session mark rejected")
		h.reply(chatID, errorText(err))
		return
	}

	view := attendance.Project(*log, user.Role)
	h.reply(chatID, cmd.done+"\n\n"+formatSession(view))
}

// scheduleSession /schedule прием терапевт пациент ГГГГ-ММ-ДД
func (h *Handler) scheduleSession(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	admin := h.currentAdmin(message)
	if admin == nil {
		return
	}

	parts := strings.Fields(args)
	if len(parts) != 4 {
		h.reply(chatID, "❌ Формат: /schedule прием терапевт пациент ГГГГ-ММ-ДД")
		return
	}

	ids := make([]uint, 3)
	for i := range ids {
		id, err := parseID(parts[i])
		if err != nil {
			h.reply(chatID, errorText(err))
			return
		}
		ids[i] = id
	}
	date, err := h.attendanceService.ParseDate(parts[3])
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}

	log, err := h.sessionService.ScheduleSession(admin, ids[0], ids[1], ids[2], date)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	h.reply(chatID, "✅ Визит запланирован\n\n"+formatSession(attendance.Project(*log, admin.Role)))
}

func (h *Handler) resolveDiscrepancy(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	admin := h.currentAdmin(message)
	if admin == nil {
		return
	}

	id, err := parseID(args)
	if err != nil {
		h.reply(chatID, errorText(err)+"\nПример: /resolve 12")
		return
	}

	log, err := h.sessionService.ResolveDiscrepancy(admin, id)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	h.reply(chatID, "✅ Расхождение закрыто\n\n"+formatSession(attendance.Project(*log, admin.Role)))
}

// showDiscrepancies открытые расхождения, с аргументом all все
func (h *Handler) showDiscrepancies(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	admin := h.currentAdmin(message)
	if admin == nil {
		return
	}

	unresolvedOnly := strings.TrimSpace(args) != "all"
	logs, err := h.sessionService.ListDiscrepancies(admin, unresolvedOnly)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	if len(logs) == 0 {
		h.reply(chatID, "✅ Расхождений нет.")
		return
	}

	lines := []string{fmt.Sprintf("⚠️ Расхождения (%d):", len(logs)), ""}
	for _, view := range attendance.ProjectAll(logs, admin.Role) {
		lines = append(lines, formatSession(view), "")
	}
	h.reply(chatID, strings.TrimSpace(strings.Join(lines, "\n")))
}
