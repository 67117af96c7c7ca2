package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"complyguard-lab/internal/api"
	"complyguard-lab/internal/api/handlers"
	"complyguard-lab/internal/config"
	"complyguard-lab/internal/domain/services"
	grpcserver "complyguard-lab/internal/grpc/compliance"
	"complyguard-lab/internal/infrastructure/cache"
	"complyguard-lab/internal/infrastructure/database"
	"complyguard-lab/internal/infrastructure/database/repository"
	"complyguard-lab/internal/streaming"
	"complyguard-lab/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting ComplyGuard Lab")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure
	db, redisCache, err := initInfrastructure(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize infrastructure")
	}
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// Initialize repositories
	var repos *repository.Repositories
	if db != nil {
		if err := db.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to apply database migrations")
		}
		repos = repository.NewRepositories(db)
		log.Info().Msg("repositories initialized with database")
	} else {
		log.Warn().Msg("running without database - repositories unavailable")
	}

	// Initialize streaming infrastructure
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		var err error
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing without real-time streaming")
		} else {
			log.Info().Str("url", cfg.NATS.URL).Msg("connected to NATS")
		}
	}

	// Create event bus for real-time updates
	eventBus := streaming.NewEventBus(natsPublisher, log)
	log.Info().Bool("nats_enabled", natsPublisher != nil).Msg("event bus initialized")

	// Create WebSocket hub for compliance dashboard updates, fed from the
	// event bus
	wsHub := streaming.NewWebSocketHub(log)
	go wsHub.Run(ctx)
	go wsHub.ConsumeBus(ctx, eventBus)

	// Wire event publisher for real-time updates
	eventPublisher := streaming.NewEventBusPublisher(eventBus)

	// Initialize domain services
	catalog, err := services.NewCatalog(cfg.Catalog, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load framework catalog")
	}
	log.Info().Int("frameworks", len(catalog.Snapshot().Order)).Msg("framework catalog loaded")

	mapper := services.NewControlMapper(cfg.Mapping, log)
	analyzer := services.NewGapAnalyzer(log)

	scorer, err := services.NewScorer(cfg.Scoring.TrustWeights, log)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid trust weight configuration")
	}

	notification := services.NewNotificationEngine(cfg.Notification, log)

	// Assessment engine persists through the repository when available,
	// otherwise runs compute-only.
	var store services.AssessmentStore
	if repos != nil {
		store = repos.Assessments
	}
	engine := services.NewAssessmentEngine(catalog, mapper, analyzer, scorer, store, redisCache, eventPublisher, cfg.Assessment, log)
	log.Info().Msg("assessment engine initialized")

	// Deadline sweeper needs incident persistence to find overdue reports
	var sweeper *services.DeadlineSweeper
	if repos != nil {
		sweeper = services.NewDeadlineSweeper(repos.Incidents, redisCache, eventPublisher, cfg.Assessment, log)
		go func() {
			if err := sweeper.Start(ctx); err != nil && err != context.Canceled {
				log.Error().Err(err).Msg("deadline sweeper stopped with error")
			}
		}()
	} else {
		log.Warn().Msg("deadline sweeper disabled - requires database")
	}

	// Initialize handlers
	deps := handlers.Dependencies{
		Catalog:      catalog,
		Engine:       engine,
		Notification: notification,
		Publisher:    eventPublisher,
		Cache:        redisCache,
		Repos:        repos,
		WSHub:        wsHub,
		EventBus:     eventBus,
		Logger:       log,
	}
	h := handlers.NewHandlers(deps)

	// Create router
	router := api.NewRouter(*cfg, h, redisCache, log)
	httpHandler := router.Setup()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start gRPC server (health checks for orchestrators)
	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gRPC listener")
	}

	grpcServer := grpc.NewServer()
	grpcserver.RegisterHealthServer(grpcServer, db, redisCache)

	go func() {
		log.Info().
			Str("addr", grpcListener.Addr().String()).
			Msg("starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Fatal().Err(err).Msg("gRPC server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	// Cancel context to stop background services
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Stop gRPC server
	grpcServer.GracefulStop()

	// Stop HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Stop sweeper
	if sweeper != nil {
		sweeper.Stop()
	}

	log.Info().Msg("shutdown complete")
}

// initInfrastructure initializes database and cache connections
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache, error) {
	// Connect to PostgreSQL
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without database")
		// Don't fail, continue without database for development
	}

	// Connect to Redis
	redisCache, err := cache.NewRedis(ctx, cfg.Redis, log)
	if err != nil {
		return db, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return db, redisCache, nil
}
