package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"btc-payment-gateway/config"
	"btc-payment-gateway/internal/adapter/chain"
	httpHandler "btc-payment-gateway/internal/adapter/http/handler"
	pgStorage "btc-payment-gateway/internal/adapter/storage/postgres"
	redisStorage "btc-payment-gateway/internal/adapter/storage/redis"
	"btc-payment-gateway/internal/adapter/storage/static"
	"btc-payment-gateway/internal/core/ports"
	"btc-payment-gateway/internal/service"
	"btc-payment-gateway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Bitcoin Payment Gateway")

	ctx, stopMonitors := context.WithCancel(context.Background())
	defer stopMonitors()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize encryption for gateway secrets at rest
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}

	// Gateway store: DB table or static config-file gateways
	var gatewayStore ports.GatewayStore
	switch cfg.Gateways.Source {
	case "config":
		gatewayStore, err = static.NewGatewayStore(cfg.Gateways, cfg.Server.Secret)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load config-file gateways")
		}
		log.Info().Int("gateways", len(cfg.Gateways.Static)).Msg("Using config-file gateway store")
	default:
		gatewayStore = pgStorage.NewGatewayRepo(pool, encSvc, cfg.Server.Secret)
	}

	orderRepo := pgStorage.NewOrderRepo(pool)

	// Redis stores
	nonceStore := redisStorage.NewNonceStore(rdb, cfg.Redis.Prefix)
	counterStore := redisStorage.NewCounterStore(rdb, cfg.Redis.Prefix)
	throttleStore := redisStorage.NewThrottleStore(rdb, cfg.Redis.Prefix)
	flagStore := redisStorage.NewFlagStore(rdb, cfg.Redis.Prefix)

	// Blockchain and exchange-rate adapters
	httpClient := &http.Client{Timeout: 15 * time.Second}
	blockchain := chain.NewMultiBlockchain(
		chain.NewEsploraAdapter(httpClient),
	)
	rateAdaptersFor := func(names []string) []ports.ExchangeRateAdapter {
		return chain.NewExchangeRateAdapters(names, httpClient)
	}
	deriver := chain.NewBIP32Deriver()

	// Core services
	subscribers := service.NewSubscriberRegistry()
	dispatcher := service.NewNotificationDispatcher(ctx, orderRepo, subscribers, httpClient, log)
	transitions := service.NewTransitionPipeline(orderRepo, counterStore, cfg.Orders.CountOrders, dispatcher, log)
	monitor := service.NewOrderMonitor(ctx, blockchain, flagStore, transitions, cfg.Orders, log)
	allocator := service.NewAddressAllocator(orderRepo, gatewayStore, deriver, blockchain, log)
	gatewaySvc := service.NewGatewayService(
		gatewayStore, orderRepo, allocator, flagStore, blockchain,
		rateAdaptersFor, transitions, monitor, cfg.Orders, log,
	)
	validator := service.NewSignatureValidator(nonceStore, log)
	throttler := service.NewThrottler(throttleStore, cfg.Throttle, log)

	// Health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		GatewayStore:   gatewayStore,
		GatewaySvc:     gatewaySvc,
		Validator:      validator,
		Throttler:      throttler,
		Subscribers:    subscribers,
		Counters:       counterStore,
		CountOrders:    cfg.Orders.CountOrders,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// stop order monitors and in-flight webhook deliveries
	stopMonitors()
	monitor.Wait()
	dispatcher.Wait()

	log.Info().Msg("Server exited")
}
