package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PARTYLAND_ADDR", "")
	t.Setenv("PAYMENT_DEADLINE_MINUTES", "")
	t.Setenv("NOTIFY_TIMEOUT", "")
	t.Setenv("PAYMENT_LINK_BASE_URL", "")

	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.DeadlineMinutes != 180 {
		t.Fatalf("expected default deadline 180, got %d", cfg.DeadlineMinutes)
	}
	if cfg.NotifyTimeout != 10*time.Second {
		t.Fatalf("expected default notify timeout, got %v", cfg.NotifyTimeout)
	}
	if cfg.PaymentLinkBase != "https://pay.partyland.uz/i/" {
		t.Fatalf("unexpected link base %q", cfg.PaymentLinkBase)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PARTYLAND_ADDR", ":9000")
	t.Setenv("PAYMENT_DEADLINE_MINUTES", "60")
	t.Setenv("ADMIN_TELEGRAM_CHAT_ID", "123456")
	t.Setenv("NOTIFY_TIMEOUT", "3s")
	// invalid values fall back to defaults
	t.Setenv("REMINDER_WINDOW_MINUTES", "abc")

	cfg := Load()
	if cfg.Addr != ":9000" {
		t.Fatalf("expected :9000, got %q", cfg.Addr)
	}
	if cfg.DeadlineMinutes != 60 {
		t.Fatalf("expected 60, got %d", cfg.DeadlineMinutes)
	}
	if cfg.AdminChatID != 123456 {
		t.Fatalf("expected admin chat id 123456, got %d", cfg.AdminChatID)
	}
	if cfg.NotifyTimeout != 3*time.Second {
		t.Fatalf("expected 3s, got %v", cfg.NotifyTimeout)
	}
	if cfg.ReminderWindowMin != 30 {
		t.Fatalf("expected fallback reminder window 30, got %d", cfg.ReminderWindowMin)
	}
}
