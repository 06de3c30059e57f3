package application

import (
	"fmt"
	"strings"
	"time"

	"telegram-itmo-schedule/internal/domain/model"
)

// Canned replies. The wording is load-bearing: users and the ops runbook
// grep for these exact strings.
const (
	welcomeReply = "🎓 Добро пожаловать в бот расписания ИТМО!\n\nВыберите действие:"

	datePromptReply = "📝 Введите дату в формате ДД.ММ или ДД/ММ (например: 25.12 или 25/12)\n\nПосле ввода даты выберите следующее действие:"

	unknownCommandReply = "❓ Неизвестная команда. Выберите действие из меню:"

	badDateReply = "❌ Неверный формат даты. Используйте формат ДД.ММ или ДД/ММ"

	scheduleMissingReply = "❌ Расписание не загружено. Проверьте переменную окружения SCHEDULE_JSON"

	scheduleFailedReply = "❌ Ошибка при получении расписания"

	nextActionPrompt = "\n\nВыберите следующее действие:"

	freeDayLine = "🆓 Выходной"

	helpReply = "ℹ️ Команды бота:\n\n" +
		"/start - главное меню\n" +
		"/today - расписание на сегодня\n" +
		"/week - расписание на неделю\n" +
		"/date - расписание на конкретную дату\n" +
		"/help - эта справка"
)

// ErrorReply is the last-resort answer when a handler fails outright. The
// adapter sends it without a keyboard.
const ErrorReply = "❌ Произошла ошибка. Попробуйте еще раз."

// weekdayNames is indexed by time.Weekday (Sunday first).
var weekdayNames = [7]string{
	"Воскресенье",
	"Понедельник",
	"Вторник",
	"Среда",
	"Четверг",
	"Пятница",
	"Суббота",
}

func weekdayName(t time.Time) string { return weekdayNames[t.Weekday()] }

// RenderDay builds the single-day message: a dated header, then one block
// per class with windows in between. A day without entries is a day off.
func RenderDay(day model.DaySchedule) string {
	header := fmt.Sprintf("📅 %s (%s)", weekdayName(day.Date), day.Date.Format("02.01.2006"))
	if day.Free() {
		return header + "\n\n" + freeDayLine
	}

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n\n")
	for _, e := range day.Entries {
		sb.WriteString(renderEntry(e))
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderWeek builds the Monday-through-Sunday digest. Day blocks reuse the
// single-day entry rendering, indented three spaces with blank lines
// squeezed out.
func RenderWeek(week model.WeekSchedule) string {
	sunday := week.Monday.AddDate(0, 0, 6)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 Расписание на неделю (%s - %s)\n\n",
		week.Monday.Format("02.01"), sunday.Format("02.01.2006"))

	for i, day := range week.Days {
		date := week.Monday.AddDate(0, 0, i)
		fmt.Fprintf(&sb, "📅 %s (%s):\n", weekdayName(date), date.Format("02.01"))

		if day.Free() {
			sb.WriteString("   " + freeDayLine + "\n\n")
			continue
		}
		for _, e := range day.Entries {
			sb.WriteString(indentBlock(renderEntry(e)))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderEntry formats one class or window. Class blocks end with a newline,
// window lines do not; RenderDay's joining newline keeps the original
// spacing either way.
func renderEntry(e model.Entry) string {
	if e.IsWindow {
		return fmt.Sprintf("🪟 Окно %s-%s (%d мин)", e.Start, e.End, e.Minutes)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📚 %s\n", e.Subject)
	fmt.Fprintf(&sb, "⏰ %s-%s", e.Start, e.End)
	if e.HasRoom() {
		fmt.Fprintf(&sb, " • Ауд. %s", e.Room)
	}
	sb.WriteString("\n")
	if e.HasAddress() {
		fmt.Fprintf(&sb, "📍 %s\n", e.Address)
	}
	if e.Teacher != "" {
		fmt.Fprintf(&sb, "👤 %s\n", e.Teacher)
	}
	return sb.String()
}

// indentBlock prefixes every non-blank line with three spaces and drops the
// blank ones, producing the compact week layout.
func indentBlock(block string) string {
	lines := strings.Split(block, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, "   "+line)
	}
	return strings.Join(out, "\n")
}

// withNextPrompt appends the follow-up call to action every schedule reply
// carries.
func withNextPrompt(s string) string { return s + nextActionPrompt }
