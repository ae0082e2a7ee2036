package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"waterscribe/internal/model"
	"waterscribe/internal/service"
)

const (
	btnSkip          = "⏭️ Skip"
	btnYes           = "Yes"
	btnNo            = "No"
	btnConfirm       = "✅ Confirm"
	btnCancel        = "↩️ Cancel"
	btnCancelDialog  = "⏪ Cancel input"
	iconDefault      = "🟢"
	iconDue          = "⏳"
	iconOverdue      = "⚠️"
	iconRecurring    = "♻️"
	iconOneTime      = "📅"
	menuLabelNewTask = "➕ New task"
	menuLabelTasks   = "📋 Tasks"
	menuLabelLog     = "🧾 Log"
	menuLabelStats   = "📊 Stats"
)

const dueLayout = "2006-01-02 15:04"

func formatDue(t time.Time) string {
	return t.Format(dueLayout)
}

// dueIcon marks overdue tasks and tasks inside the due-soon window.
func dueIcon(task model.ScheduledTask, now time.Time, window time.Duration) string {
	switch {
	case now.After(task.NextDue):
		return iconOverdue
	case task.DueWithin(now, window):
		return iconDue
	default:
		return iconDefault
	}
}

func formatTask(task model.ScheduledTask, now time.Time, window time.Duration) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s\n", dueIcon(task, now, window), task.ID, escape(task.TaskName)))

	if now.After(task.NextDue) {
		b.WriteString(fmt.Sprintf("   ⏰ Due: %s · <b>overdue</b>\n", formatDue(task.NextDue)))
	} else {
		daysLeft := int(task.NextDue.Sub(now).Hours() / 24)
		b.WriteString(fmt.Sprintf("   ⏰ Due: %s · in %s\n", formatDue(task.NextDue), pluralDays(daysLeft)))
	}

	if task.IsRecurring && task.FrequencyDays != nil {
		b.WriteString(fmt.Sprintf("   %s Every %s\n", iconRecurring, pluralDays(*task.FrequencyDays)))
		if task.LastCompleted != nil {
			b.WriteString(fmt.Sprintf("   ✅ Last done: %s\n", formatDue(*task.LastCompleted)))
		} else {
			b.WriteString("   ✅ Not done yet\n")
		}
	} else {
		b.WriteString(fmt.Sprintf("   %s One-time\n", iconOneTime))
	}

	if task.Description != "" {
		b.WriteString(fmt.Sprintf("   📝 %s\n", escape(task.Description)))
	}
	b.WriteByte('\n')
	return b.String()
}

func formatLog(entries []model.MaintenanceLogEntry) string {
	if len(entries) == 0 {
		return "🧾 The maintenance log is empty."
	}
	var b strings.Builder
	b.WriteString("🧾 <b>Recent maintenance</b>\n")
	for _, entry := range entries {
		b.WriteString(fmt.Sprintf("• %s · <b>%s</b>", formatDue(entry.Timestamp), escape(entry.TaskType)))
		if entry.Description != "" {
			b.WriteString(" · " + escape(entry.Description))
		}
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}

func formatStats(s *service.Summary, window, recent time.Duration) string {
	var b strings.Builder
	b.WriteString("📊 <b>Tank summary</b>\n")
	b.WriteString(fmt.Sprintf("• Tasks due within %s: %d\n", pluralDays(int(window.Hours()/24)), s.UpcomingTasks))
	b.WriteString(fmt.Sprintf("• Fish: %d\n", s.TotalFish))
	b.WriteString(fmt.Sprintf("• Maintenance in the last %s: %d\n", pluralDays(int(recent.Hours()/24)), s.RecentMaintenance))
	if p := s.LatestParameters; p != nil {
		b.WriteString(fmt.Sprintf("• Last water test: %s\n", formatDue(p.Timestamp)))
		for _, v := range []struct {
			label string
			value *float64
		}{
			{"Temperature", p.Temperature},
			{"pH", p.PH},
			{"Ammonia", p.Ammonia},
			{"Nitrite", p.Nitrite},
			{"Nitrate", p.Nitrate},
		} {
			if v.value != nil {
				b.WriteString(fmt.Sprintf("   %s: %s\n", v.label, strconv.FormatFloat(*v.value, 'f', -1, 64)))
			}
		}
	} else {
		b.WriteString("• No water tests yet\n")
	}
	return strings.TrimSpace(b.String())
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func parseTaskID(data, prefix string) (uint, error) {
	return parseCommandID(strings.TrimPrefix(data, prefix))
}

func parseCommandID(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if value == 0 {
		return 0, fmt.Errorf("task id must be positive")
	}
	return uint(value), nil
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelLog),
			tgbotapi.NewKeyboardButton(menuLabelStats),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func yesNoKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnYes),
			tgbotapi.NewKeyboardButton(btnNo),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func normalizeInput(text string) string {
	return strings.TrimSpace(strings.ToLower(text))
}

func isSkipInput(text string) bool {
	value := normalizeInput(text)
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isYesInput(text string) bool {
	value := normalizeInput(text)
	return value == "yes" || value == "y"
}

func isNoInput(text string) bool {
	value := normalizeInput(text)
	return value == "no" || value == "n" || value == "-"
}

func isConfirmInput(text string) bool {
	value := normalizeInput(text)
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := normalizeInput(text)
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no"
}

func isCancelDialogInput(text string) bool {
	value := normalizeInput(text)
	return value == strings.ToLower(btnCancelDialog) || value == "cancel input"
}
