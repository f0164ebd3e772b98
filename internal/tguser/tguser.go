// Package tguser stores customers and admins known by their Telegram id.
package tguser

import "time"

// TelegramUser is a bot user. TelegramID doubles as the chat id for
// notifications.
type TelegramUser struct {
	TelegramID int64      `json:"telegram_id"`
	Name       string     `json:"name"`
	Phone      string     `json:"phone"`
	Language   string     `json:"language"`
	Birthday   *time.Time `json:"birthday"`
	IsAdmin    bool       `json:"is_admin"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// DisplayName falls back to the numeric id when no name was captured.
func (u TelegramUser) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return "TG " + itoa64(u.TelegramID)
}

// Address is a saved delivery address of a Telegram user.
type Address struct {
	ID             int       `json:"id"`
	TelegramUserID int64     `json:"user"`
	Address        string    `json:"address"`
	Latitude       *float64  `json:"latitude"`
	Longitude      *float64  `json:"longitude"`
	CreatedAt      time.Time `json:"created_at"`
}

// ProfileUpdate carries the fields a bot may change. Nil fields are kept.
type ProfileUpdate struct {
	Name     *string
	Phone    *string
	Language *string
	Birthday *time.Time
}
