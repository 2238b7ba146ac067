package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/arunmurugan-dev/kadai-backend/api/routes"
	"github.com/arunmurugan-dev/kadai-backend/internal/campaigns"
	checkoutsvc "github.com/arunmurugan-dev/kadai-backend/internal/checkout"
	"github.com/arunmurugan-dev/kadai-backend/internal/notifications"
	"github.com/arunmurugan-dev/kadai-backend/internal/orders"
	"github.com/arunmurugan-dev/kadai-backend/internal/shipping"
	"github.com/arunmurugan-dev/kadai-backend/internal/tax"
	razorpaywebhook "github.com/arunmurugan-dev/kadai-backend/internal/webhooks/razorpay"
	"github.com/arunmurugan-dev/kadai-backend/pkg/config"
	"github.com/arunmurugan-dev/kadai-backend/pkg/db"
	"github.com/arunmurugan-dev/kadai-backend/pkg/logger"
	"github.com/arunmurugan-dev/kadai-backend/pkg/migrate"
	"github.com/arunmurugan-dev/kadai-backend/pkg/razorpay"
	"github.com/arunmurugan-dev/kadai-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gateway, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway client", err)
		os.Exit(1)
	}

	notifier := notifications.NewLogSender(logg)
	ordersRepo := orders.NewRepository(dbClient.DB())

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Logger:      logg,
		Repo:        ordersRepo,
		Notifier:    notifier,
		SweepWindow: cfg.Sweep.Window,
		SweepBatch:  cfg.Sweep.Batch,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	taxRepo := tax.NewRepository(dbClient.DB())
	storeState := ""
	if settings, err := taxRepo.ActiveSettings(context.Background()); err == nil && settings != nil {
		storeState = settings.StoreState
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Logger:     logg,
		Tx:         dbClient,
		Orders:     ordersRepo,
		Campaigns:  campaigns.NewRepository(dbClient.DB()),
		Tax:        taxRepo,
		Shipping:   shipping.NewRepository(dbClient.DB()),
		Gateway:    gateway,
		Notifier:   notifier,
		StoreState: storeState,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	webhookService, err := razorpaywebhook.NewService(razorpaywebhook.ServiceParams{
		Logger: logg,
		Orders: ordersSvc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := razorpaywebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "razorpay")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			Gateway:         gateway,
			Checkout:        checkoutService,
			Orders:          ordersSvc,
			WebhookService:  webhookService,
			IdempotencyGate: webhookGuard,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
