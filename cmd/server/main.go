package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"smartfare/internal/app"
	"smartfare/internal/config"
	"smartfare/internal/fare"
	"smartfare/internal/handler"
	internalRedis "smartfare/internal/redis"
	"smartfare/internal/repository/postgres"
	"smartfare/internal/service"
	"smartfare/internal/verify"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s (gps mode: %s)", cfg.Server.Port, cfg.GPS.Mode)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize Redis stores.
	feedStore := internalRedis.NewFeedStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	accountRepo := postgres.NewAccountRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	debitRepo := postgres.NewDebitRepository(db)

	// Initialize services.
	notificationService := service.NewNotificationService()
	receiptService := service.NewReceiptService(notificationService)
	accountService := service.NewAccountService(cacheStore, accountRepo)
	walletService := service.NewWalletService(db, debitRepo, accountRepo)
	tripService := service.NewTripService(tripRepo)

	gate := verify.NewDeviceGate(200 * time.Millisecond)

	travelService := service.NewTravelService(service.TravelConfig{
		Accounts:          accountService,
		TripRepo:          tripRepo,
		Wallet:            walletService,
		Receipts:          receiptService,
		Notifications:     notificationService,
		FeedStore:         feedStore,
		LockStore:         lockStore,
		Gate:              gate,
		Mode:              cfg.GPS.Mode,
		SimulatedInterval: cfg.GPS.SimulatedInterval,
		NoiseThresholdKm:  cfg.GPS.NoiseThresholdKm,
		Policy: fare.Policy{
			MinimumFare: cfg.Fare.MinimumFare,
			PerKmRate:   cfg.Fare.PerKmRate,
		},
	})

	// Initialize handlers.
	accountHandler := handler.NewAccountHandler(accountService)
	travelHandler := handler.NewTravelHandler(travelService)
	tripHandler := handler.NewTripHandler(tripService)
	debitHandler := handler.NewDebitHandler(walletService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		AccountHandler: accountHandler,
		TravelHandler:  travelHandler,
		TripHandler:    tripHandler,
		DebitHandler:   debitHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
