package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/wichananm65/partyland-backend/internal/config"
	"github.com/wichananm65/partyland-backend/internal/database"
	"github.com/wichananm65/partyland-backend/internal/logger"
	"github.com/wichananm65/partyland-backend/internal/moderation"
	"github.com/wichananm65/partyland-backend/internal/notify"
	"github.com/wichananm65/partyland-backend/internal/order"
	"github.com/wichananm65/partyland-backend/internal/payment"
	"github.com/wichananm65/partyland-backend/internal/tguser"
)

func main() {
	cfg := config.Load()
	logger.Initialize(cfg.Env)
	defer logger.Sync()

	dryRun := &cli.BoolFlag{Name: "dry-run", Usage: "only print matching orders"}

	app := &cli.App{
		Name:  "partyland-jobs",
		Usage: "periodic order maintenance",
		Commands: []*cli.Command{
			{
				Name:  "expire-overdue-orders",
				Usage: "cancel orders whose payment deadline has passed",
				Flags: []cli.Flag{dryRun},
				Action: func(c *cli.Context) error {
					return withService(c.Context, cfg, func(ctx context.Context, s *moderation.Service) error {
						res, err := s.ExpireOverdue(ctx, time.Now(), c.Bool("dry-run"))
						report(c, "expired", res, c.Bool("dry-run"))
						return err
					})
				},
			},
			{
				Name:  "send-deadline-reminders",
				Usage: "remind customers whose payment deadline is near",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "minutes", Value: cfg.ReminderWindowMin, Usage: "reminder window before the deadline"},
					dryRun,
				},
				Action: func(c *cli.Context) error {
					minutes := c.Int("minutes")
					if minutes <= 0 {
						return cli.Exit("--minutes must be positive", 2)
					}
					return withService(c.Context, cfg, func(ctx context.Context, s *moderation.Service) error {
						res, err := s.SendReminders(ctx, time.Now(), time.Duration(minutes)*time.Minute, c.Bool("dry-run"))
						report(c, "reminded", res, c.Bool("dry-run"))
						return err
					})
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Error("Job failed", zap.Error(err))
		os.Exit(1)
	}
}

func withService(ctx context.Context, cfg config.Config, fn func(context.Context, *moderation.Service) error) error {
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	tx := database.NewTxManager(db)
	orders := order.NewService(order.NewPostgresRepository(db), tx)
	payments := payment.NewService(payment.NewPostgresRepository(db), orders, tx)
	tgusers := tguser.NewService(tguser.NewPostgresRepository(db))

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.BotToken != "" {
		notifier = notify.NewTelegramNotifier(cfg.TelegramAPIURL, cfg.BotToken, cfg.NotifyTimeout)
	}
	return fn(ctx, moderation.NewService(orders, payments, tgusers, tx, notifier))
}

func report(c *cli.Context, verb string, res moderation.SweepResult, dryRun bool) {
	if dryRun {
		fmt.Fprintf(c.App.Writer, "dry run: %d orders matched %v\n", len(res.Matched), res.Matched)
		return
	}
	fmt.Fprintf(c.App.Writer, "%s %d of %d orders\n", verb, res.Processed, len(res.Matched))
}
