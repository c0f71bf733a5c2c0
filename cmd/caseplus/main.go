package main

import (
	"context"
	"encoding/hex"
	"log"
	"net/http"

	"github.com/Shivanshu999/casePlus/config"
	"github.com/Shivanshu999/casePlus/internal/auth"
	handler "github.com/Shivanshu999/casePlus/internal/handler/http"
	"github.com/Shivanshu999/casePlus/internal/logger"
	"github.com/Shivanshu999/casePlus/internal/mailer"
	"github.com/Shivanshu999/casePlus/internal/middleware"
	"github.com/Shivanshu999/casePlus/internal/repository"
	"github.com/Shivanshu999/casePlus/internal/repository/postgres"
	"github.com/Shivanshu999/casePlus/internal/service"
	"github.com/Shivanshu999/casePlus/internal/stripe"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {

	// create new config
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Log.Sync()

	// create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// initialize database
	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Log.Fatal("Error initializing database", zap.Error(err))
	}
	defer db.Close()

	// migrate database
	if err := db.Migrate(); err != nil {
		logger.Log.Fatal("Error migrating database", zap.Error(err))
	}

	tokenKey, err := hex.DecodeString(cfg.AuthTokenKey)
	if err != nil {
		logger.Log.Fatal("Error extracting token key", zap.Error(err))
	}
	token := auth.NewAuthToken(tokenKey)

	// provider clients, constructed once with injected keys
	stripeClient := stripe.NewClient(cfg.StripeAPIKey)
	mailClient := mailer.NewClient(cfg.ResendAPIKey, cfg.MailFrom)

	// dependency injection
	orderRepo := repository.NewOrderRepository(db)

	reconcileService := service.NewReconcileService(orderRepo, stripeClient, mailClient, logger.Log)
	webhookHandler := handler.NewWebhookHandler(reconcileService, cfg.StripeWebhookSecret, logger.Log)

	statusService := service.NewStatusService(orderRepo)
	statusHandler := handler.NewStatusHandler(statusService, logger.Log)

	router := chi.NewRouter()

	router.Use(middleware.Logging(logger.Log))

	router.Post("/api/webhooks/stripe", webhookHandler.HandleStripeEvent())
	router.Handle("/metrics", promhttp.Handler())

	// routes that require authentication
	router.Group(func(group chi.Router) {
		group.Use(middleware.Auth(token))
		group.Get("/api/user/orders/{orderID}/payment-status", statusHandler.GetPaymentStatus())
	})

	logger.Log.Info("Running server", zap.String("addr", cfg.ServerAddr))

	if err := http.ListenAndServe(cfg.ServerAddr, router); err != nil {
		logger.Log.Fatal("Error starting server", zap.Error(err))
	}
}
