package handler

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"session-attendance-bot/internal/models"
)

// submitAttendance /attend ГГГГ-ММ-ДД статус [заметка]
func (h *Handler) submitAttendance(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	user := h.currentUser(message)
	if user == nil {
		return
	}

	parts := strings.SplitN(strings.TrimSpace(args), " ", 3)
	if len(parts) < 2 {
		h.reply(chatID, "❌ Формат: /attend ГГГГ-ММ-ДД статус [заметка]\nПример: /attend 2026-10-14 present")
		return
	}
	date, err := h.attendanceService.ParseDate(parts[0])
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	notes := ""
	if len(parts) == 3 {
		notes = strings.TrimSpace(parts[2])
	}

	rec, err := h.attendanceService.SubmitAttendance(user, date, models.DayStatus(parts[1]), notes)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	h.reply(chatID, "✅ День отмечен\n"+formatDay(*rec))
}

// submitAvailability /available ГГГГ-ММ-ДД [заметка]
func (h *Handler) submitAvailability(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	user := h.currentUser(message)
	if user == nil {
		return
	}

	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	date, err := h.attendanceService.ParseDate(parts[0])
	if err != nil {
		h.reply(chatID, errorText(err)+"\nПример: /available 2026-10-14")
		return
	}
	notes := ""
	if len(parts) == 2 {
		notes = strings.TrimSpace(parts[1])
	}

	rec, err := h.attendanceService.SubmitAvailability(user, date, notes)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	h.reply(chatID, "✅ День отмечен\n"+formatDay(*rec))
}

// applyForLeave /leave ГГГГ-ММ-ДД тип причина
func (h *Handler) applyForLeave(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	user := h.currentUser(message)
	if user == nil {
		return
	}

	parts := strings.SplitN(strings.TrimSpace(args), " ", 3)
	if len(parts) < 2 {
		h.reply(chatID, "❌ Формат: /leave ГГГГ-ММ-ДД approved_leave причина")
		return
	}
	date, err := h.attendanceService.ParseDate(parts[0])
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	reason := ""
	if len(parts) == 3 {
		reason = parts[2]
	}

	req, err := h.attendanceService.ApplyForLeave(user, date, models.DayStatus(parts[1]), reason)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	h.reply(chatID, fmt.Sprintf("📨 Заявка #%d на %s отправлена администратору.", req.ID, req.Date))
}

// recordCancellation /cancel ГГГГ-ММ-ДД причина
func (h *Handler) recordCancellation(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	user := h.currentUser(message)
	if user == nil {
		return
	}

	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	date, err := h.attendanceService.ParseDate(parts[0])
	if err != nil {
		h.reply(chatID, errorText(err)+"\nПример: /cancel 2026-10-20 пациент в отъезде")
		return
	}
	reason := ""
	if len(parts) == 2 {
		reason = parts[1]
	}

	rec, err := h.attendanceService.RecordPatientCancellation(user, date, reason)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	h.reply(chatID, "📨 Отмена записана, ждет решения администратора\n"+formatDay(*rec))
}

// showMonth /month [ГГГГ-ММ] для терапевта, /month терапевт ГГГГ-ММ для администратора
func (h *Handler) showMonth(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	user := h.currentUser(message)
	if user == nil {
		return
	}

	therapistID := user.ID
	parts := strings.Fields(args)
	if user.IsAdmin() {
		if len(parts) == 0 {
			h.reply(chatID, "❌ Формат: /month терапевт [ГГГГ-ММ]")
			return
		}
		id, err := parseID(parts[0])
		if err != nil {
			h.reply(chatID, errorText(err))
			return
		}
		therapistID = id
		parts = parts[1:]
	}

	monthArg := ""
	if len(parts) > 0 {
		monthArg = parts[0]
	}
	year, month, err := parseMonth(monthArg, message.Time())
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}

	days, err := h.attendanceService.GetMonthAttendance(user, therapistID, year, month)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	summary, err := h.attendanceService.GetMonthSummary(user, therapistID, year, month)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}

	lines := []string{formatSummary(summary), ""}
	for _, d := range days {
		lines = append(lines, formatDay(d))
	}
	h.reply(chatID, strings.Join(lines, "\n"))
}

// approveAttendance /approve терапевт ГГГГ-ММ-ДД
func (h *Handler) approveAttendance(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	admin := h.currentAdmin(message)
	if admin == nil {
		return
	}

	parts := strings.Fields(args)
	if len(parts) != 2 {
		h.reply(chatID, "❌ Формат: /approve терапевт ГГГГ-ММ-ДД")
		return
	}
	therapistID, err := parseID(parts[0])
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	date, err := h.attendanceService.ParseDate(parts[1])
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}

	rec, err := h.attendanceService.ApproveAttendance(admin, therapistID, date)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	h.reply(chatID, "✅ День утвержден\n"+formatDay(*rec))
}

// decideRequest /decide заявка approve|reject
func (h *Handler) decideRequest(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	admin := h.currentAdmin(message)
	if admin == nil {
		return
	}

	parts := strings.Fields(args)
	if len(parts) != 2 || (parts[1] != "approve" && parts[1] != "reject") {
		h.reply(chatID, "❌ Формат: /decide заявка approve|reject")
		return
	}
	id, err := parseID(parts[0])
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}

	req, err := h.attendanceService.DecideLeaveRequest(admin, id, parts[1] == "approve")
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	h.reply(chatID, fmt.Sprintf("✅ Заявка #%d: %s", req.ID, req.State))
}

func (h *Handler) showPendingRequests(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	admin := h.currentAdmin(message)
	if admin == nil {
		return
	}

	reqs, err := h.attendanceService.ListPendingRequests(admin)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	if len(reqs) == 0 {
		h.reply(chatID, "📭 Нерассмотренных заявок нет.")
		return
	}

	lines := []string{"📨 Заявки:"}
	for _, r := range reqs {
		lines = append(lines, fmt.Sprintf("#%d терапевт %d, %s, %s: %s", r.ID, r.TherapistID, r.Date, r.Kind, r.Reason))
	}
	h.reply(chatID, strings.Join(lines, "\n"))
}

// showHolidays /holidays [ГГГГ-ММ]
func (h *Handler) showHolidays(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID
	if h.currentUser(message) == nil {
		return
	}

	year, month, err := parseMonth(args, message.Time())
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}

	days, err := h.nonWorkingDayService.GetNonWorkingDaysForMonth(year, month)
	if err != nil {
		h.reply(chatID, errorText(err))
		return
	}
	if len(days) == 0 {
		h.reply(chatID, fmt.Sprintf("📅 В %02d.%d праздников нет.", month, year))
		return
	}

	lines := []string{fmt.Sprintf("🎉 Праздники %02d.%d:", month, year)}
	for _, d := range days {
		lines = append(lines, fmt.Sprintf("%s %s", d.Date, d.Title))
	}
	h.reply(chatID, strings.Join(lines, "\n"))
}
