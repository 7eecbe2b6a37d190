package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"crm-backend/internal/models"
	"crm-backend/pkg/telegram"
)

// Notifier delivers short text messages to users.
type Notifier interface {
	Notify(ctx context.Context, user *models.User, text string) error
}

// LogNotifier only writes notifications to the log.
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, user *models.User, text string) error {
	n.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Infof("Notification: %s", text)
	return nil
}

// TelegramNotifier sends notifications to users that linked a Telegram chat.
type TelegramNotifier struct {
	client *telegram.Client
	logger *logrus.Logger
}

func NewTelegramNotifier(client *telegram.Client, logger *logrus.Logger) *TelegramNotifier {
	return &TelegramNotifier{client: client, logger: logger}
}

func (n *TelegramNotifier) Notify(ctx context.Context, user *models.User, text string) error {
	if user.TelegramChatID == nil {
		n.logger.WithField("user_id", user.ID).Debug("User has no linked Telegram chat, skipping notification")
		return nil
	}
	return n.client.Send(*user.TelegramChatID, text)
}
