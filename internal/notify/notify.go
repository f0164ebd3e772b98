// Package notify delivers chat messages to customers and admins.
package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/wichananm65/partyland-backend/internal/logger"
)

// ErrNotConfigured is returned when no bot token is set.
var ErrNotConfigured = errors.New("telegram notifications are not configured")

// Button is an inline keyboard button carrying callback data.
type Button struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type Message struct {
	ChatID  int64
	Text    string
	HTML    bool
	Buttons [][]Button
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Send delivers msg and only logs a failure. It reports whether the message
// went out.
func Send(ctx context.Context, n Notifier, msg Message) bool {
	if n == nil || msg.ChatID == 0 {
		return false
	}
	err := n.Send(ctx, msg)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrNotConfigured):
		logger.Info(ctx, "Notification skipped", zap.Int64("chat_id", msg.ChatID))
	default:
		logger.Error(ctx, "Failed to send notification", err, zap.Int64("chat_id", msg.ChatID))
	}
	return false
}

// Broadcast sends msg to every chat in chatIDs and returns how many
// deliveries succeeded.
func Broadcast(ctx context.Context, n Notifier, chatIDs []int64, msg Message) int {
	sent := 0
	for _, id := range chatIDs {
		m := msg
		m.ChatID = id
		if Send(ctx, n, m) {
			sent++
		}
	}
	return sent
}

// LogNotifier stands in when no bot token is configured.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, msg Message) error {
	logger.Info(ctx, "Telegram message not sent",
		zap.Int64("chat_id", msg.ChatID),
		zap.String("text", msg.Text),
	)
	return ErrNotConfigured
}
