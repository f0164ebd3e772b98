package main

import (
	"context"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/wichananm65/partyland-backend/internal/cart"
	"github.com/wichananm65/partyland-backend/internal/category"
	"github.com/wichananm65/partyland-backend/internal/checkout"
	"github.com/wichananm65/partyland-backend/internal/config"
	"github.com/wichananm65/partyland-backend/internal/database"
	"github.com/wichananm65/partyland-backend/internal/favorite"
	"github.com/wichananm65/partyland-backend/internal/logger"
	"github.com/wichananm65/partyland-backend/internal/moderation"
	"github.com/wichananm65/partyland-backend/internal/notify"
	"github.com/wichananm65/partyland-backend/internal/order"
	"github.com/wichananm65/partyland-backend/internal/payment"
	"github.com/wichananm65/partyland-backend/internal/product"
	"github.com/wichananm65/partyland-backend/internal/tguser"
	"github.com/wichananm65/partyland-backend/internal/user"
)

// guest checkout and the deadline lookup accept anonymous callers
var optionalAuthPath = regexp.MustCompile(`^/api/(checkout/?|orders/\d+/deadline/?)$`)

func main() {
	cfg := config.Load()
	logger.Initialize(cfg.Env)
	defer logger.Sync()

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		logger.Log.Fatal("Failed to apply schema", zap.Error(err))
	}

	app := fiber.New(fiber.Config{AppName: "partyland"})
	app.Use(recover.New())
	app.Use(logger.RequestLogger())
	setupCORS(app)

	tx := database.NewTxManager(db)
	notifier := newNotifier(cfg)

	userService := user.NewService(user.NewPostgresRepository(db), cfg.JWTSecret)
	productService := product.NewService(product.NewPostgresRepository(db))
	categoryService := category.NewService(category.NewPostgresRepository(db))
	tguserService := tguser.NewService(tguser.NewPostgresRepository(db))
	cartService := cart.NewService(cart.NewPostgresRepository(db), productService)
	favoriteService := favorite.NewService(favorite.NewPostgresRepository(db), productService)

	orderService := order.NewService(order.NewPostgresRepository(db), tx)
	paymentService := payment.NewService(payment.NewPostgresRepository(db), orderService, tx)
	checkoutService := checkout.NewService(productService, cartService, tguserService, orderService,
		paymentService, tx, notifier, checkout.Options{
			LinkBase:          cfg.PaymentLinkBase,
			DeadlineMinutes:   cfg.DeadlineMinutes,
			AdminFallbackChat: cfg.AdminChatID,
		})
	moderationService := moderation.NewService(orderService, paymentService, tguserService, tx, notifier)

	userHandler := user.NewHandler(userService)
	categoryHandler := category.NewHandler(categoryService)
	productHandler := product.NewHandler(productService)
	tguserHandler := tguser.NewHandler(tguserService)
	cartHandler := cart.NewHandler(cartService)
	favoriteHandler := favorite.NewHandler(favoriteService)
	orderHandler := order.NewHandler(orderService, paymentService)
	checkoutHandler := checkout.NewHandler(checkoutService, orderService, paymentService)
	moderationHandler := moderation.NewHandler(moderationService, orderService, paymentService, tguserService,
		userService, cfg.UploadDir)

	// uploaded payment proofs
	app.Static("/uploads", cfg.UploadDir)

	userHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)
	tguserHandler.RegisterPublicRoutes(app)
	orderHandler.RegisterPublicRoutes(app)
	moderationHandler.RegisterPublicRoutes(app)

	app.Use(user.NewJWTMiddleware(cfg.JWTSecret, func(c *fiber.Ctx) bool {
		return optionalAuthPath.MatchString(c.Path())
	}))

	checkoutHandler.RegisterOptionalRoutes(app)
	orderHandler.RegisterOptionalRoutes(app)

	userHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)
	favoriteHandler.RegisterProtectedRoutes(app)
	checkoutHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)
	moderationHandler.RegisterProtectedRoutes(app)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info(ctx, "Shutting down server")
		_ = app.Shutdown()
	}()

	logger.Info(ctx, "Starting server", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env))
	if err := app.Listen(cfg.Addr); err != nil {
		logger.Error(ctx, "Server stopped", err)
	}
}

func newNotifier(cfg config.Config) notify.Notifier {
	if cfg.BotToken == "" {
		return notify.LogNotifier{}
	}
	return notify.NewTelegramNotifier(cfg.TelegramAPIURL, cfg.BotToken, cfg.NotifyTimeout)
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + logger.RequestIDHeader,
	}))
}
