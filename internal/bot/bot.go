package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"crm-backend/internal/models"
	"crm-backend/internal/repository"
	"crm-backend/internal/service"
)

// Sender delivers a text message to a chat; *telegram.Client implements it.
type Sender interface {
	Send(chatID int64, text string) error
}

type Bot struct {
	sender     Sender
	users      repository.UserRepository
	holidays   repository.HolidayRepository
	attendance *service.AttendanceService
	leaves     *service.LeaveService
	logger     *logrus.Logger
}

func New(
	sender Sender,
	users repository.UserRepository,
	holidays repository.HolidayRepository,
	attendance *service.AttendanceService,
	leaves *service.LeaveService,
	logger *logrus.Logger,
) *Bot {
	return &Bot{
		sender:     sender,
		users:      users,
		holidays:   holidays,
		attendance: attendance,
		leaves:     leaves,
		logger:     logger,
	}
}

// HandleUpdates processes updates until the channel is closed or ctx is done.
func (b *Bot) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	fields := logrus.Fields{"chat_id": message.Chat.ID}
	if message.From != nil {
		fields["from"] = message.From.UserName
	}
	b.logger.WithFields(fields).Debug(message.Text)

	if !message.IsCommand() {
		b.reply(message.Chat.ID, "Use /start to see the available commands.")
		return
	}

	b.handleCommand(ctx, message)
}

// linkedUser resolves the CRM account bound to the chat.
func (b *Bot) linkedUser(ctx context.Context, chatID int64) *models.User {
	user, err := b.users.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		b.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to resolve telegram user")
		b.reply(chatID, "❌ Something went wrong, please try again later.")
		return nil
	}
	if user == nil {
		b.reply(chatID, notLinkedText(chatID))
		return nil
	}
	return user
}

func (b *Bot) reply(chatID int64, text string) {
	if err := b.sender.Send(chatID, text); err != nil {
		b.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to send telegram message")
	}
}
