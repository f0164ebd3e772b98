package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// TelegramNotifier posts messages to the Telegram Bot API.
type TelegramNotifier struct {
	apiURL  string
	token   string
	timeout time.Duration
}

func NewTelegramNotifier(apiURL, token string, timeout time.Duration) *TelegramNotifier {
	return &TelegramNotifier{apiURL: strings.TrimRight(apiURL, "/"), token: token, timeout: timeout}
}

type sendMessageRequest struct {
	ChatID      int64        `json:"chat_id"`
	Text        string       `json:"text"`
	ParseMode   string       `json:"parse_mode,omitempty"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
}

type replyMarkup struct {
	InlineKeyboard [][]Button `json:"inline_keyboard"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (n *TelegramNotifier) Send(ctx context.Context, msg Message) error {
	if n.token == "" {
		return ErrNotConfigured
	}
	payload := sendMessageRequest{ChatID: msg.ChatID, Text: msg.Text}
	if msg.HTML {
		payload.ParseMode = "HTML"
	}
	if len(msg.Buttons) > 0 {
		payload.ReplyMarkup = &replyMarkup{InlineKeyboard: msg.Buttons}
	}

	timeout := n.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	code, body, errs := fiber.Post(n.apiURL + "/bot" + n.token + "/sendMessage").
		JSON(payload).
		Timeout(timeout).
		Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("send telegram message: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		var res apiResponse
		_ = json.Unmarshal(body, &res)
		return fmt.Errorf("telegram api returned %d: %s", code, res.Description)
	}
	return nil
}
