package handler

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handler) handleCommand(message *tgbotapi.Message) {
	command := message.Command()
	args := message.CommandArguments()

	switch command {
	case "start":
		h.sendStartMessage(message)
	case "help":
		h.sendHelpMessage(message)
	case "helpadmin":
		h.sendAdminHelpMessage(message)
	case "register":
		h.register(message, args)
	case "myprofile":
		h.showProfile(message)

	// Визиты (терапевт и пациент)
	case "today":
		h.showTodaySessions(message)
	case "reached":
		h.markSession(message, "reached", args)
	case "leaving":
		h.markSession(message, "leaving", args)
	case "arrived":
		h.markSession(message, "arrival", args)
	case "departed":
		h.markSession(message, "departure", args)

	// Посещаемость (терапевт)
	case "attend":
		h.submitAttendance(message, args)
	case "available":
		h.submitAvailability(message, args)
	case "leave":
		h.applyForLeave(message, args)
	case "cancel":
		h.recordCancellation(message, args)
	case "month":
		h.showMonth(message, args)
	case "holidays":
		h.showHolidays(message, args)

	// Команды администратора
	case "schedule":
		h.scheduleSession(message, args)
	case "resolve":
		h.resolveDiscrepancy(message, args)
	case "discrepancies":
		h.showDiscrepancies(message, args)
	case "approve":
		h.approveAttendance(message, args)
	case "decide":
		h.decideRequest(message, args)
	case "requests":
		h.showPendingRequests(message)
	case "setrole":
		h.setUserRole(message, args)

	default:
		h.sendUnknownCommand(message)
	}
}

func (h *Handler) sendUnknownCommand(message *tgbotapi.Message) {
	h.reply(message.Chat.ID, "❌ Неизвестная команда. Используйте /help для списка команд.")
}

const helpText = `📋 Доступные команды:

👤 Профиль:
/register therapist|patient Имя [Фамилия] - Зарегистрироваться
/myprofile - Показать мой профиль

🩺 Визиты:
/today - Визиты на сегодня
/reached ID - Терапевт на месте
/leaving ID - Терапевт уходит
/arrived ID - Пациент подтверждает приход терапевта
/departed ID - Пациент подтверждает уход терапевта

📅 Посещаемость (терапевт):
/attend ГГГГ-ММ-ДД статус [заметка] - Отметить день
    Статусы: present, absent, half_day, sick_leave, emergency_leave, available
/available ГГГГ-ММ-ДД [заметка] - Свободен в день без визитов
/leave ГГГГ-ММ-ДД approved_leave причина - Заявка на отпуск
/cancel ГГГГ-ММ-ДД причина - Пациент отменил визиты
/month [ГГГГ-ММ] - Посещаемость за месяц
/holidays [ГГГГ-ММ] - Праздники месяца

🛠 Утилиты:
/start - Начать работу с ботом
/help - Показать это сообщение
/helpadmin - Команды администратора`

const adminHelpText = `👑 Команды администратора:

/schedule прием терапевт пациент ГГГГ-ММ-ДД - Запланировать визит
/discrepancies [all] - Визиты с расхождением
/resolve ID - Закрыть расхождение визита
/approve терапевт ГГГГ-ММ-ДД - Утвердить день
/requests - Нерассмотренные заявки
/decide заявка approve|reject - Решение по заявке
/setrole пользователь роль - Сменить роль
/month терапевт ГГГГ-ММ - Посещаемость терапевта`

func (h *Handler) sendStartMessage(message *tgbotapi.Message) {
	h.reply(message.Chat.ID, "👋 Бот учета визитов и посещаемости терапевтов.\n\n"+helpText)
}

func (h *Handler) sendHelpMessage(message *tgbotapi.Message) {
	h.reply(message.Chat.ID, helpText)
}

func (h *Handler) sendAdminHelpMessage(message *tgbotapi.Message) {
	if h.currentAdmin(message) == nil {
		return
	}
	h.reply(message.Chat.ID, adminHelpText)
}
