package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven configuration shared by the API server and
// the batch jobs.
type Config struct {
	Addr        string
	Env         string
	DatabaseURL string
	JWTSecret   string

	BotToken          string
	TelegramAPIURL    string
	AdminChatID       int64
	NotifyTimeout     time.Duration
	PaymentLinkBase   string
	DeadlineMinutes   int
	ReminderWindowMin int
	UploadDir         string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:              getString("PARTYLAND_ADDR", ":8080"),
		Env:               getString("APP_ENV", "development"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		BotToken:          os.Getenv("BOT_TOKEN"),
		TelegramAPIURL:    getString("TELEGRAM_API_URL", "https://api.telegram.org"),
		AdminChatID:       getInt64("ADMIN_TELEGRAM_CHAT_ID", 0),
		NotifyTimeout:     getDuration("NOTIFY_TIMEOUT", 10*time.Second),
		PaymentLinkBase:   getString("PAYMENT_LINK_BASE_URL", "https://pay.partyland.uz/i/"),
		DeadlineMinutes:   getInt("PAYMENT_DEADLINE_MINUTES", 180),
		ReminderWindowMin: getInt("REMINDER_WINDOW_MINUTES", 30),
		UploadDir:         getString("UPLOAD_DIR", "./uploads"),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
