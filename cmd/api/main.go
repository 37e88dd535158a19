package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agrigenie/internal/cart"
	"agrigenie/internal/config"
	"agrigenie/internal/database"
	"agrigenie/internal/events"
	"agrigenie/internal/gemini"
	"agrigenie/internal/handler"
	"agrigenie/internal/market"
	"agrigenie/internal/repository"
	"agrigenie/internal/router"
	"agrigenie/internal/service"
	"agrigenie/internal/telemetry"

	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting agrigenie API server")

	shutdownTracing, err := telemetry.Setup(cfg.Tracing, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to flush traces")
		}
	}()

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("invalid redis URL: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// carts and the price cache fail per request until Redis is back
		logger.Warn().Err(err).Msg("redis is unreachable at startup")
	}

	// Initialize repositories
	listingRepo := repository.NewListingRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	profileRepo := repository.NewProfileRepository(pool, logger)
	statsRepo := repository.NewStatsRepository(pool, logger)
	stateRepo := repository.NewStateRepository(pool, logger)
	paymentRepo := repository.NewPaymentMethodRepository(pool, logger)

	// Price catalogue with S3 and local fallback
	fileLoader := market.NewFileLoader(logger)
	var s3Loader market.Loader
	if cfg.S3.Enabled {
		s3Loader, err = market.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
			s3Loader = nil
		}
	} else {
		logger.Info().Msg("using local file system for the price catalogue (S3 disabled)")
	}
	catalogue := market.LoadCatalogue(ctx, market.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, logger), cfg.Market.CataloguePath, logger)

	marketClient := market.NewClient(market.ClientConfig{
		BaseURL: cfg.Market.BaseURL,
		APIKey:  cfg.Market.APIKey,
		Timeout: cfg.Market.Timeout,
	}, logger)
	priceCache := market.NewRedisCache(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.CacheTTL, logger)

	geminiClient := gemini.NewClient(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
		Timeout: cfg.Gemini.Timeout,
	}, logger)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing order events to kafka")
	}
	defer publisher.Close()

	cartStore := cart.NewRedisStore(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.CartTTL, logger)

	// Initialize services
	listingService := service.NewListingService(listingRepo, logger)
	orderService := service.NewOrderService(orderRepo, listingRepo, publisher, logger)
	statsService := service.NewStatsService(statsRepo, logger)
	cartService := service.NewCartService(cartStore, listingRepo, orderRepo, paymentRepo, publisher, cfg.Marketplace.ShippingFee, logger)
	marketService := service.NewMarketService(marketClient, priceCache, market.NewGenerator(catalogue, cfg.Market.MockSeed), logger)
	treatmentService := service.NewTreatmentService(geminiClient, logger)
	profileService := service.NewProfileService(profileRepo, logger)
	stateService := service.NewStateService(stateRepo, logger)
	paymentService := service.NewPaymentMethodService(paymentRepo, logger)

	// Initialize router
	mux := router.New(router.Handlers{
		Listings: handler.NewListingHandler(listingService, logger),
		Orders:   handler.NewOrderHandler(orderService, statsService, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Advisory: handler.NewAdvisoryHandler(marketService, treatmentService, logger),
		Account:  handler.NewAccountHandler(profileService, stateService, logger),
		Payments: handler.NewPaymentMethodHandler(paymentService, logger),
	}, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
