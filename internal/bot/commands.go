package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"crm-backend/internal/apperror"
	"crm-backend/internal/models"
	"crm-backend/internal/service"
)

// markCommands maps bot commands to attendance event types.
var markCommands = map[string]string{
	"checkin":  models.EventCheckIn,
	"lunchout": models.EventLunchOut,
	"lunchin":  models.EventLunchIn,
	"breakout": models.EventBreakOut,
	"breakin":  models.EventBreakIn,
	"checkout": models.EventCheckOut,
}

var eventLabels = map[string]string{
	models.EventCheckIn:  "Check in",
	models.EventLunchOut: "Lunch out",
	models.EventLunchIn:  "Lunch in",
	models.EventBreakOut: "Break out",
	models.EventBreakIn:  "Break in",
	models.EventCheckOut: "Check out",
}

const helpText = `📋 Available commands:

⏰ Attendance:
/checkin - Start the working day
/lunchout - Leave for lunch
/lunchin - Back from lunch
/breakout - Start a break
/breakin - Back from a break
/checkout - Finish the working day
/today - Today's attendance

🏖️ Leave:
/leave - Leave balance for this year`

func notLinkedText(chatID int64) string {
	return fmt.Sprintf("🔗 This chat is not linked to a CRM account yet.\nAsk an admin to set telegram chat id %d on your profile.", chatID)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	command := message.Command()

	if eventType, ok := markCommands[command]; ok {
		b.mark(ctx, chatID, eventType)
		return
	}

	switch command {
	case "start", "help":
		b.start(ctx, chatID)
	case "today":
		b.today(ctx, chatID)
	case "leave":
		b.leaveSummary(ctx, chatID)
	default:
		b.reply(chatID, "❌ Unknown command. Use /help for the list of commands.")
	}
}

func (b *Bot) start(ctx context.Context, chatID int64) {
	user, err := b.users.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		b.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to resolve telegram user")
	}
	if user == nil {
		b.reply(chatID, notLinkedText(chatID)+"\n\n"+helpText)
		return
	}
	b.reply(chatID, fmt.Sprintf("👋 Hi, %s!\n\n%s", user.Name, helpText))
}

func (b *Bot) mark(ctx context.Context, chatID int64, eventType string) {
	user := b.linkedUser(ctx, chatID)
	if user == nil {
		return
	}

	record, err := b.attendance.MarkEvent(ctx, service.MarkInput{
		UserID: user.ID,
		Role:   user.Role,
		Type:   eventType,
	})
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	event := record.FindEvent(eventType)
	text := fmt.Sprintf("✅ %s marked at %s", eventLabels[eventType], event.Time.Format("15:04"))
	if eventType == models.EventCheckOut {
		text += fmt.Sprintf("\nWorked today: %.1f h", record.TotalHours)
	}
	b.reply(chatID, text)
}

func (b *Bot) today(ctx context.Context, chatID int64) {
	user := b.linkedUser(ctx, chatID)
	if user == nil {
		return
	}

	record, err := b.attendance.Today(ctx, user.ID)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	var sb strings.Builder
	date := b.todayKey(record)
	sb.WriteString(fmt.Sprintf("📅 %s\n", date))

	holiday, err := b.holidays.IsHoliday(ctx, date)
	if err != nil {
		b.logger.WithError(err).WithField("date", date).Warn("Failed to check holiday")
	}
	if holiday {
		sb.WriteString("🎉 Today is a holiday\n")
	}

	if record == nil || len(record.Events) == 0 {
		sb.WriteString("No attendance marked yet. Use /checkin to start the day.")
		b.reply(chatID, sb.String())
		return
	}

	for _, eventType := range models.EventTypes {
		if event := record.FindEvent(eventType); event != nil {
			sb.WriteString(fmt.Sprintf("%s: %s\n", eventLabels[eventType], event.Time.Format("15:04")))
		}
	}
	if record.IsOpen() {
		sb.WriteString("⏳ Still checked in")
	} else {
		sb.WriteString(fmt.Sprintf("Total: %.1f h", record.TotalHours))
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) todayKey(record *models.AttendanceRecord) string {
	if record != nil {
		return record.Date
	}
	return b.attendance.TodayKey()
}

func (b *Bot) leaveSummary(ctx context.Context, chatID int64) {
	user := b.linkedUser(ctx, chatID)
	if user == nil {
		return
	}
	if user.IsIntern() {
		b.reply(chatID, "ℹ️ Interns are not eligible for leave.")
		return
	}

	summary, err := b.leaves.Summary(ctx, user)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	b.reply(chatID, fmt.Sprintf("🏖️ Leave balance\nCasual: %d of %d left (%d used)\nSick: %d of %d left (%d used)",
		summary.Casual.Remaining, summary.Casual.Total, summary.Casual.Used,
		summary.Sick.Remaining, summary.Sick.Total, summary.Sick.Used))
}

func (b *Bot) replyError(chatID int64, err error) {
	if apperror.GetCode(err) == apperror.CodeInternal {
		b.logger.WithError(err).WithField("chat_id", chatID).Error("Bot command failed")
	}
	b.reply(chatID, "❌ "+apperror.PublicMessage(err))
}
